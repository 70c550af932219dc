package console

import (
	"bufio"
	"fmt"
	"io"

	"PriceCheck/internal/model"
)

// PromptSymbol asks for a symbol on out and reads one line from in.
// A blank line selects def. End of input before anything was typed also
// selects def and says so.
func PromptSymbol(in io.Reader, out io.Writer, def model.Symbol) model.Symbol {
	fmt.Fprintf(out, "Enter stock symbol (default: %s): ", def)

	line, err := bufio.NewReader(in).ReadString('\n')
	if sym := model.NormalizeSymbol(line); sym != "" {
		return sym
	}
	if err != nil {
		fmt.Fprintf(out, "\nNo input received. Using default: %s\n", def)
	}
	return def
}
