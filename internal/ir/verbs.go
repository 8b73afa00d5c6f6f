package ir

// ParamType is the literal type a verb argument is stored as.
type ParamType string

const (
	ParamText   ParamType = "text"
	ParamNumber ParamType = "number"
	ParamBool   ParamType = "bool"
)

// VerbParam describes one positional argument of an automation verb.
type VerbParam struct {
	// Field is the data key the argument is stored under.
	Field string

	// Type is the literal type the argument is unwrapped to.
	Type ParamType

	// Default is stored when the argument is absent. Nil means the field is
	// left unset.
	Default any

	// Coerce replaces a non-literal argument with Default instead of keeping
	// it as expression text.
	Coerce bool
}

// Verb is an automation call with a dedicated block kind.
type Verb struct {
	// Name is the callee identifier in source.
	Name string
	Kind string
	// Params are in call order. A call with more arguments is not this verb.
	Params []VerbParam
}

var verbs = []Verb{
	{Name: "wait", Kind: KindWaitCall, Params: []VerbParam{{Field: "duration", Type: ParamNumber}}},
	{Name: "press", Kind: KindPressCall, Params: []VerbParam{{Field: "key", Type: ParamText}}},
	{Name: "click", Kind: KindClickCall, Params: []VerbParam{{Field: "target", Type: ParamText}}},
	{Name: "type", Kind: KindTypeCall, Params: []VerbParam{{Field: "text", Type: ParamText}}},
	{Name: "log", Kind: KindLogCall, Params: []VerbParam{{Field: "message", Type: ParamText}}},
	{Name: "open", Kind: KindOpenCall, Params: []VerbParam{
		{Field: "appName", Type: ParamText},
		{Field: "bringToFront", Type: ParamBool, Default: true},
		{Field: "waitSeconds", Type: ParamNumber, Default: 5.0, Coerce: true},
	}},
	{Name: "openUrl", Kind: KindOpenURLCall, Params: []VerbParam{{Field: "url", Type: ParamText}}},
	{Name: "vision", Kind: KindVisionCall, Params: []VerbParam{{Field: "prompt", Type: ParamText}}},
	{Name: "screenshot", Kind: KindScreenshotCall, Params: []VerbParam{{Field: "path", Type: ParamText}}},
	{Name: "ai", Kind: KindAICall, Params: []VerbParam{
		{Field: "prompt", Type: ParamText},
		{Field: "model", Type: ParamText},
	}},
	{Name: "locator", Kind: KindLocatorCall, Params: []VerbParam{{Field: "selector", Type: ParamText}}},
}

var (
	verbsByName = make(map[string]Verb, len(verbs))
	verbsByKind = make(map[string]Verb, len(verbs))
)

func init() {
	for _, v := range verbs {
		verbsByName[v.Name] = v
		verbsByKind[v.Kind] = v
	}
}

// VerbByName returns the verb called as name.
func VerbByName(name string) (Verb, bool) {
	v, ok := verbsByName[name]
	return v, ok
}

// VerbByKind returns the verb whose block kind is kind.
func VerbByKind(kind string) (Verb, bool) {
	v, ok := verbsByKind[kind]
	return v, ok
}

// Verbs returns the verb table in declaration order.
func Verbs() []Verb {
	out := make([]Verb, len(verbs))
	copy(out, verbs)
	return out
}
