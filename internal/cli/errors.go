package cli

import (
	"errors"
	"fmt"
)

// outputErrorCommon normalizes error emission across commands so failures
// always carry a stable machine-matchable code.
func outputErrorCommon(globals *Globals, code, message string) error {
	if globals != nil {
		prefix := globals.Styles.Error.Render(fmt.Sprintf("Error [%s]:", code))
		fmt.Fprintf(globals.Stderr, "%s %s\n", prefix, message)
	}
	return errors.New(message)
}
