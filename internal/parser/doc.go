// Package parser turns automation script source into a block document.
//
// Parsing is done by the goja JavaScript parser. The resulting syntax tree is
// walked depth-first, producing one block per statement. Each statement is
// matched against an ordered set of recognition rules:
//
//  1. dedicated statement kinds (function, let, if, while, for, break,
//     continue, throw, return, switch, try)
//  2. automation verbs (wait, press, click, type, log, open, openUrl, vision,
//     screenshot, ai, locator) called directly or bound with a single let
//  3. any other call of a named function or method chain
//  4. anything else, kept as raw code
//
// Rule 4 is the default arm of the statement switch, so a syntactically valid
// program always parses. Unrecognized statements lose only their structured
// view; their exact source text is kept.
//
// Expression fields hold source text sliced from the input. The syntax tree
// does not keep grouping parentheses, so spans are widened until their
// parentheses balance.
package parser
