package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/tts"
)

const (
	keyVoice    = "voice"
	keyOut      = "out"
	keySpeed    = "speed"
	keyNoStream = "no-stream"
	keyForce    = "force"
)

// errTerminalOutput is returned when audio would be written to a terminal.
var errTerminalOutput = errors.New("refusing to write binary audio to a terminal; use --out or --force")

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

func (c *cli) newSayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "say TEXT...",
		Short: "Synthesize speech and write the audio to a file or stdout",
		Long: `Synthesize speech with the named voice. A trailing "_emotion" suffix on the
text, e.g. "Good morning_happy", is sent as the emotion hint.`,
		Example: `  cosyctl say --voice alice "Hello there" --out hello.wav
  cosyctl say --voice alice "Good morning_happy" > morning.wav`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSay(cmd, strings.Join(args, " "))
		},
	}
	cmd.Flags().String(keyVoice, "", "Voice name from the speaker list")
	cmd.Flags().StringP(keyOut, "o", "-", "Output file, - for stdout")
	cmd.Flags().Float64(keySpeed, 0, "Speech rate multiplier (0 keeps the server default)")
	cmd.Flags().Bool(keyNoStream, false, "Request a complete payload even when streaming is enabled")
	cmd.Flags().Bool(keyForce, false, "Write audio to stdout even when it is a terminal")
	_ = cmd.MarkFlagRequired(keyVoice)
	c.bindFlags(cmd, keyVoice, keyOut, keySpeed, keyNoStream, keyForce)
	return cmd
}

func (c *cli) runSay(cmd *cobra.Command, text string) error {
	path := c.v.GetString(keyOut)
	if isStdout(path) && !c.v.GetBool(keyForce) && isTerminal(cmd.OutOrStdout()) {
		return errTerminalOutput
	}

	a, done, err := c.openApp(cmd)
	if err != nil {
		return err
	}
	defer done()
	ctx := cmd.Context()

	resp, err := a.service.Synthesize(ctx, text, tts.SynthesisConfig{
		Voice:            c.v.GetString(keyVoice),
		Speed:            c.v.GetFloat64(keySpeed),
		ForceNoStreaming: c.v.GetBool(keyNoStream),
	})
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}
	defer resp.Close()

	out, closeOut, err := openOutput(cmd, path)
	if err != nil {
		return err
	}
	defer closeOut()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes of %s\n", n, resp.ContentType)
	return nil
}

func isStdout(path string) bool {
	return path == "" || path == "-"
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if isStdout(path) {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path) //nolint:gosec // output path chosen by the user
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
