package prompts

import _ "embed"

//go:embed evaluator.md.tmpl
var EvaluatorTemplate string

//go:embed followup.md.tmpl
var FollowUpTemplate string
