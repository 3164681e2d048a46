package models

// RuleCategory identifies which validation rule rejected a row
type RuleCategory string

const (
	RuleMissingField     RuleCategory = "MissingField"
	RuleFormatError      RuleCategory = "FormatError"
	RuleUnknownEnumValue RuleCategory = "UnknownEnumValue"
	RuleOrphanReference  RuleCategory = "OrphanReference"
	RuleDuplicateKey     RuleCategory = "DuplicateKey"
)

// ValidationException is one rejected row. Exceptions are append-only and
// never block processing of other rows.
type ValidationException struct {
	Entity   string       `json:"entity"`
	Source   string       `json:"source"`
	Category RuleCategory `json:"category"`
	Detail   string       `json:"detail"`
}
