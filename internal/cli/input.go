package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errPasswordMismatch = errors.New("passwords do not match")

// getPassword reads a single line from the command's stdin when fromStdin is
// set, otherwise prompts on the terminal without echo. With confirm the
// terminal prompt is repeated and both entries must match.
func getPassword(cmd *cobra.Command, fromStdin, confirm bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	w := cmd.ErrOrStderr()
	pw, err := promptPassword(w, "Password: ")
	if err != nil {
		return "", err
	}
	if confirm {
		again, err := promptPassword(w, "Repeat password: ")
		if err != nil {
			return "", err
		}
		if again != pw {
			return "", errPasswordMismatch
		}
	}
	return pw, nil
}

func promptPassword(w io.Writer, prompt string) (string, error) {
	printf(w, "%s", prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	printf(w, "\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
