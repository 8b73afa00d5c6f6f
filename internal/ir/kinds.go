package ir

import "slices"

// Block kinds understood by the parser and generator.
const (
	KindProgram             = "program"
	KindFunctionDeclaration = "function-declaration"
	KindVariableDeclaration = "variable-declaration"
	KindIf                  = "if-statement"
	KindWhile               = "while-statement"
	KindFor                 = "for-statement"
	KindBreak               = "break-statement"
	KindContinue            = "continue-statement"
	KindThrow               = "throw-statement"
	KindReturn              = "return-statement"
	KindSwitch              = "switch-statement"
	KindSwitchCase          = "switch-case"
	KindTry                 = "try-statement"

	KindWaitCall       = "wait-call"
	KindPressCall      = "press-call"
	KindClickCall      = "click-call"
	KindTypeCall       = "type-call"
	KindLogCall        = "log-call"
	KindOpenCall       = "open-call"
	KindOpenURLCall    = "open-url-call"
	KindVisionCall     = "vision-call"
	KindScreenshotCall = "screenshot-call"
	KindAICall         = "ai-call"
	KindLocatorCall    = "locator-call"

	KindFunctionCall = "function-call"
	KindRawStatement = "raw-statement"
)

// Child slot ids.
const (
	SlotBody       = "body"
	SlotConsequent = "consequent"
	SlotAlternate  = "alternate"
	SlotCases      = "cases"
	SlotTry        = "try"
	SlotCatch      = "catch"
	SlotFinally    = "finally"
)

// Field ids shared by several kinds.
const (
	FieldVariable = "variable"
	FieldCode     = "code"
)

// expressionSuffix marks a text field whose value is source code rather than
// an unwrapped string literal.
const expressionSuffix = "IsExpression"

// kindSlots lists the child slots each kind declares, in emission order.
// Kinds absent from the table are leaves.
var kindSlots = map[string][]string{
	KindProgram:             {SlotBody},
	KindFunctionDeclaration: {SlotBody},
	KindIf:                  {SlotConsequent, SlotAlternate},
	KindWhile:               {SlotBody},
	KindFor:                 {SlotBody},
	KindSwitch:              {SlotCases},
	KindSwitchCase:          {SlotBody},
	KindTry:                 {SlotTry, SlotCatch, SlotFinally},
}

var knownKinds = []string{
	KindProgram,
	KindFunctionDeclaration,
	KindVariableDeclaration,
	KindIf,
	KindWhile,
	KindFor,
	KindBreak,
	KindContinue,
	KindThrow,
	KindReturn,
	KindSwitch,
	KindSwitchCase,
	KindTry,
	KindWaitCall,
	KindPressCall,
	KindClickCall,
	KindTypeCall,
	KindLogCall,
	KindOpenCall,
	KindOpenURLCall,
	KindVisionCall,
	KindScreenshotCall,
	KindAICall,
	KindLocatorCall,
	KindFunctionCall,
	KindRawStatement,
}

// KnownKinds returns every kind the parser can produce, in declaration order.
func KnownKinds() []string {
	return slices.Clone(knownKinds)
}

// IsKnownKind reports whether kind has an emission rule.
func IsKnownKind(kind string) bool {
	return slices.Contains(knownKinds, kind)
}

// SlotsFor returns the child slots declared by kind. Leaf kinds return nil.
func SlotsFor(kind string) []string {
	return slices.Clone(kindSlots[kind])
}

// HasSlot reports whether kind declares slot.
func HasSlot(kind, slot string) bool {
	return slices.Contains(kindSlots[kind], slot)
}

// SlotAccepts reports whether a block of kind may sit in slot. Switch cases
// live only in a switch's cases slot, and that slot holds nothing else.
func SlotAccepts(slot, kind string) bool {
	return (slot == SlotCases) == (kind == KindSwitchCase)
}

// ExpressionKey returns the data key that marks field as holding source code.
func ExpressionKey(field string) string {
	return field + expressionSuffix
}
