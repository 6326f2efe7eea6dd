package kv

import (
	"fmt"
	"github.com/spf13/cobra"
	"strings"
)

var (
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Checks that the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Ping(); err != nil {
				return err
			}
			fmt.Println("pong")
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value...]",
		Short: "Sets the value for a key (multiple value arguments are joined by spaces)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := strings.Join(args[1:], " ")
			if err := rpcStore.Set(key, []byte(value)); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			resp, ok, err := rpcStore.Get(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			deleted, err := rpcStore.Delete(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, deleted=%t\n", key, deleted)
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			found, err := rpcStore.Has(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t\n", key, found)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Prints the number of stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := rpcStore.Keys()
			if err != nil {
				return err
			}
			fmt.Printf("keys=%d\n", count)
			return nil
		},
	}
)
