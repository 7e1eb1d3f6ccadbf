package policy

// Tribool is the result of a partial (nullable-aware) comparison.
type Tribool uint8

const (
	False Tribool = iota
	// Unknown is the result of comparing against a missing value.
	Unknown
	True
)

func FromBool(b bool) Tribool {
	if b {
		return True
	}
	return False
}

// Definite reports the boolean result and whether there is one.
func (t Tribool) Definite() (bool, bool) {
	return t == True, t != Unknown
}

func (t Tribool) String() string {
	switch t {
	case False:
		return "false"
	case True:
		return "true"
	default:
		return "unknown"
	}
}
