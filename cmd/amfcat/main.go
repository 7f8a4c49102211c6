// Command amfcat decodes and encodes AMF0/AMF3 values and Remoting
// packets from the command line, for inspecting captured wire dumps.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "amfcat",
		Usage: "decode and encode AMF0/AMF3 values and Remoting packets",
		Commands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "decode a binary AMF value and print its structure",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "encoding", Value: "auto", Usage: "amf0, amf3, or auto"},
				},
				Action: runDecode,
			},
			{
				Name:      "encode",
				Usage:     "encode a JSON value description as AMF0 or AMF3",
				ArgsUsage: "<file|->",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "encoding", Value: "amf0", Usage: "amf0 or amf3"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to this file instead of stdout"},
				},
				Action: runEncode,
			},
			{
				Name:      "remoting",
				Usage:     "decode a Remoting envelope and print its headers and messages",
				ArgsUsage: "<file>",
				Action:    runRemoting,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("amfcat failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
