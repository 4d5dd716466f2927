package contract

import "errors"

var (
	ErrRuleIDInvalid       = errors.New("contract: rule id must match [A-Za-z0-9][A-Za-z0-9-]{0,63}")
	ErrRuleTypeInvalid     = errors.New("contract: rule type is not in the closed set")
	ErrRuleSeverityInvalid = errors.New("contract: severity must be error or warning")
	ErrRulePatternMismatch = errors.New("contract: pattern must be set iff the rule type is pattern-based")
	ErrRulePatternInvalid  = errors.New("contract: pattern does not compile as a regex")
	ErrRuleGlobRequired    = errors.New("contract: file_glob is required")
	ErrRuleMessageRequired = errors.New("contract: message is required")
	ErrContractNotFound    = errors.New("contract: not found")
)
