package guardrail

import "regexp"

const (
	DefaultMaxInputChars = 5000
	truncationSuffix     = "... [truncated]"
	minReplyChars        = 20
	refundTolerance      = 1.10
	duplicateWindow      = 3
	maxDiscountCodes     = 1
	storeCreditMarkup    = 1.10
)

var injectionPhrases = []string{
	"ignore previous instructions",
	"ignore all instructions",
	"forget everything",
	"system prompt",
	"reveal your prompt",
	"override your",
	"disregard your programming",
	"jailbreak",
	"act as if",
	"pretend you are",
	"you are now",
	"new instructions",
	"developer message",
	"tool instructions",
}

// internalKeywords reference internal execution state. They block input and
// fail output.
var internalKeywords = []string{
	"gid://shopify",
	"tool_call",
	"system prompt",
	"developer message",
	"state[",
	"state.get",
	"thought:",
	"observation:",
	"action:",
}

var aggressivePhrases = []string{
	"lawsuit",
	"sue you",
	"sue your company",
	"lawyer",
	"legal action",
	"report you",
	"bbb complaint",
	"better business bureau",
	"chargeback",
	"dispute the charge",
	"credit card company",
	"attorney general",
	"consumer protection",
}

var healthPhrases = []string{
	"allergic reaction",
	"allergy",
	"rash",
	"hives",
	"swelling",
	"breathing difficulty",
	"difficulty breathing",
	"anaphylax",
	"anaphylaxis",
	"hospital",
	"emergency room",
	"urgent care",
	"doctor said",
	"pediatrician",
}

type forbiddenPhrase struct {
	phrase string
	reason string
}

var forbiddenPhrases = []forbiddenPhrase{
	{phrase: "guaranteed delivery", reason: "cannot guarantee delivery dates"},
	{phrase: "within 24 hours", reason: "cannot promise specific timeframes"},
	{phrase: "100% money back", reason: "no blanket money-back promises"},
	{phrase: "i promise", reason: "no personal promises"},
	{phrase: "we guarantee", reason: "no guarantees on outcomes"},
	{phrase: "definitely by tomorrow", reason: "cannot promise next-day outcomes"},
	{phrase: "full refund no questions", reason: "refunds follow the resolution order"},
	{phrase: "guaranteed by", reason: "cannot guarantee dates"},
	{phrase: "you will receive it by", reason: "cannot promise arrival dates"},
}

var competitors = []string{
	"zevo",
	"off!",
	"repel",
	"raid",
	"babyganics",
	"skin so soft",
}

type redaction struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Applied in order: long digit runs first so phone matching cannot split a
// card number.
var redactions = []redaction{
	{pattern: regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), placeholder: "[CARD REDACTED]"},
	{pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), placeholder: "[SSN REDACTED]"},
	{pattern: regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`), placeholder: "[EMAIL REDACTED]"},
	{pattern: regexp.MustCompile(`\b(?:\+?\d{1,3}[\s-]?)?(?:\(?\d{2,4}\)?[\s-]?)?\d{3}[\s-]?\d{2}[\s-]?\d{2}\b`), placeholder: "[PHONE REDACTED]"},
	{pattern: regexp.MustCompile(`(?i)\b\d{1,5}\s+[A-Za-z0-9.\-]+\s+(?:st|street|ave|avenue|rd|road|blvd|boulevard|ln|lane|dr|drive)\b`), placeholder: "[ADDRESS REDACTED]"},
}
