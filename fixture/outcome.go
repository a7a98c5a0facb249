package fixture

import (
	"errors"
	"fmt"

	"github.com/orbnauticus/dibi-go/dibi"
)

// Outcome is the expected result of opening a backend with the parameters of a scenario.
type Outcome string

// Outcomes. The failures are named after the error kinds they expect.
const (
	OutcomeSuccess        Outcome = ""
	OutcomeConnection     Outcome = "ConnectionError"
	OutcomeAuthentication Outcome = "AuthenticationError"
	OutcomeNoSuchDatabase Outcome = "NoSuchDatabaseError"
)

var outcomeErrors = map[Outcome]error{
	OutcomeConnection:     dibi.ErrConnection,
	OutcomeAuthentication: dibi.ErrAuthentication,
	OutcomeNoSuchDatabase: dibi.ErrNoSuchDatabase,
}

// ParseOutcome resolves the value of a "this raises" key.
func ParseOutcome(name string) (Outcome, error) {
	outcome := Outcome(name)
	if _, ok := outcomeErrors[outcome]; !ok {
		return OutcomeSuccess, fmt.Errorf("%w: %q", ErrUnknownOutcome, name)
	}

	return outcome, nil
}

// Err returns the sentinel error the outcome expects, or nil for OutcomeSuccess.
func (o Outcome) Err() error {
	return outcomeErrors[o]
}

// IsFailure reports whether the outcome expects an error.
func (o Outcome) IsFailure() bool {
	return o != OutcomeSuccess
}

// Matches reports whether err is what the outcome expects.
func (o Outcome) Matches(err error) bool {
	if !o.IsFailure() {
		return err == nil
	}

	return errors.Is(err, o.Err())
}

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}

	return string(o)
}
