package repl

import (
	"bufio"
	"fmt"
	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/client"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/spf13/cobra"
	"io"
	"os"
	"strings"
)

const prompt = "Enter command: "

var (
	// ReplCmd reads request lines from stdin and prints the server replies
	ReplCmd = &cobra.Command{
		Use:   "repl",
		Short: "Interactive prompt sending each input line as one request",
		Long:  "Starts an interactive prompt. Every line read from stdin is sent to the server as one request frame and the reply is printed. The prompt ends on EOF (Ctrl-D).",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
)

func init() {
	util.SetupRPCClientFlags(ReplCmd)
}

func run(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	s, err := client.NewRPCStore(*util.GetClientConfig(), util.GetTransport())
	if err != nil {
		return err
	}
	defer s.Close()

	return loop(os.Stdin, os.Stdout, s.Do)
}

// loop sends every line of in through send until in is exhausted. Failed
// requests are reported and do not end the loop.
func loop(in io.Reader, out io.Writer, send func(req []byte) ([]byte, error)) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, codec.MaxBodyLen), codec.MaxBodyLen+1)

	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSuffix(scanner.Text(), "\r")
		resp, err := send([]byte(line))
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Server reply: %s\n", resp)
	}
}
