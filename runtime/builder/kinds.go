package builder

import (
	"github.com/aledsdavies/svelteparse/core/invariant"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// NodeKind represents syntax node types
//
// IMPORTANT: When adding new node types, ALWAYS add them at the END of the enum
// (just before nodeKindCount). Region fingerprints hash the numeric values.
type NodeKind uint32

const (
	KindNone  NodeKind = iota // Never emitted; zero value guard
	KindError                 // Tokens wrapped by DoneError

	// Markup
	KindDocument
	KindElement
	KindEndTag
	KindAttribute
	KindAttributeValue
	KindDirective
	KindText
	KindComment
	KindRawText

	// Block structure (children of the document, one per {#...}...{/...})
	KindIfBlock
	KindEachBlock
	KindAwaitBlock
	KindKeyBlock
	KindSnippetBlock
	KindBranch // Children between two clause regions

	// Regions (separately reparseable; dual kinds have an untyped and a typed variant)
	KindIfStart
	KindIfStartTyped
	KindElseClause
	KindElseClauseTyped
	KindEachStart
	KindEachStartTyped
	KindAwaitStart
	KindAwaitStartTyped
	KindThenClause
	KindThenClauseTyped
	KindCatchClause
	KindCatchClauseTyped
	KindKeyStart
	KindKeyStartTyped
	KindSnippetStart
	KindSnippetStartTyped
	KindContentExpression
	KindContentExpressionTyped
	KindAttributeExpression
	KindAttributeExpressionTyped
	KindAttributeParameter
	KindAttributeParameterTyped
	KindSpreadOrShorthand
	KindSpreadOrShorthandTyped
	KindIfEnd
	KindEachEnd
	KindAwaitEnd
	KindKeyEnd
	KindSnippetEnd

	// Template constructs inside regions
	KindParameter              // Binding parameter: each item/index, then/catch value, let: value
	KindTagDependentExpression // Each block key: (item.id)
	KindSpread                 // {...props}
	KindHtmlTag                // @html
	KindDebugTag               // @debug
	KindRenderTag              // @render
	KindConstTag               // @const

	// Host expressions
	KindIdentifier
	KindLiteral
	KindTemplateLiteral
	KindArrayLiteral
	KindObjectLiteral
	KindProperty
	KindSpreadElement
	KindMemberExpression
	KindIndexExpression
	KindCallExpression
	KindArguments
	KindNewExpression
	KindUnaryExpression
	KindPostfixExpression
	KindBinaryExpression
	KindConditionalExpression
	KindAssignmentExpression
	KindArrowFunction
	KindParameterList
	KindParenthesizedExpression
	KindCommaExpression
	KindAsExpression // Type-annotated expression: items as Item
	KindSatisfiesExpression
	KindNonNullExpression

	// Host patterns
	KindObjectPattern
	KindArrayPattern
	KindPatternProperty
	KindRestElement
	KindDefaultValue

	// Host types
	KindTypeAnnotation
	KindTypeReference
	KindUnionType
	KindIntersectionType
	KindArrayType
	KindTupleType
	KindObjectType
	KindPropertySignature
	KindFunctionType
	KindTypeArguments
	KindTypeParameters
	KindTypeParameter
	KindLiteralType
	KindParenthesizedType
	KindTypeQuery
	KindTypeOperator

	// Host declarations
	KindVarDeclaration
	KindVariable
	KindFunctionDeclaration

	// Host statements (arrow and function bodies)
	KindBlockStatement
	KindExpressionStatement
	KindReturnStatement
	KindIfStatement

	nodeKindCount
)

var kindNames = [nodeKindCount]string{
	KindNone:                     "None",
	KindError:                    "Error",
	KindDocument:                 "Document",
	KindElement:                  "Element",
	KindEndTag:                   "EndTag",
	KindAttribute:                "Attribute",
	KindAttributeValue:           "AttributeValue",
	KindDirective:                "Directive",
	KindText:                     "Text",
	KindComment:                  "Comment",
	KindRawText:                  "RawText",
	KindIfBlock:                  "IfBlock",
	KindEachBlock:                "EachBlock",
	KindAwaitBlock:               "AwaitBlock",
	KindKeyBlock:                 "KeyBlock",
	KindSnippetBlock:             "SnippetBlock",
	KindBranch:                   "Branch",
	KindIfStart:                  "IfStart",
	KindIfStartTyped:             "IfStartTyped",
	KindElseClause:               "ElseClause",
	KindElseClauseTyped:          "ElseClauseTyped",
	KindEachStart:                "EachStart",
	KindEachStartTyped:           "EachStartTyped",
	KindAwaitStart:               "AwaitStart",
	KindAwaitStartTyped:          "AwaitStartTyped",
	KindThenClause:               "ThenClause",
	KindThenClauseTyped:          "ThenClauseTyped",
	KindCatchClause:              "CatchClause",
	KindCatchClauseTyped:         "CatchClauseTyped",
	KindKeyStart:                 "KeyStart",
	KindKeyStartTyped:            "KeyStartTyped",
	KindSnippetStart:             "SnippetStart",
	KindSnippetStartTyped:        "SnippetStartTyped",
	KindContentExpression:        "ContentExpression",
	KindContentExpressionTyped:   "ContentExpressionTyped",
	KindAttributeExpression:      "AttributeExpression",
	KindAttributeExpressionTyped: "AttributeExpressionTyped",
	KindAttributeParameter:       "AttributeParameter",
	KindAttributeParameterTyped:  "AttributeParameterTyped",
	KindSpreadOrShorthand:        "SpreadOrShorthand",
	KindSpreadOrShorthandTyped:   "SpreadOrShorthandTyped",
	KindIfEnd:                    "IfEnd",
	KindEachEnd:                  "EachEnd",
	KindAwaitEnd:                 "AwaitEnd",
	KindKeyEnd:                   "KeyEnd",
	KindSnippetEnd:               "SnippetEnd",
	KindParameter:                "Parameter",
	KindTagDependentExpression:   "TagDependentExpression",
	KindSpread:                   "Spread",
	KindHtmlTag:                  "HtmlTag",
	KindDebugTag:                 "DebugTag",
	KindRenderTag:                "RenderTag",
	KindConstTag:                 "ConstTag",
	KindIdentifier:               "Identifier",
	KindLiteral:                  "Literal",
	KindTemplateLiteral:          "TemplateLiteral",
	KindArrayLiteral:             "ArrayLiteral",
	KindObjectLiteral:            "ObjectLiteral",
	KindProperty:                 "Property",
	KindSpreadElement:            "SpreadElement",
	KindMemberExpression:         "MemberExpression",
	KindIndexExpression:          "IndexExpression",
	KindCallExpression:           "CallExpression",
	KindArguments:                "Arguments",
	KindNewExpression:            "NewExpression",
	KindUnaryExpression:          "UnaryExpression",
	KindPostfixExpression:        "PostfixExpression",
	KindBinaryExpression:         "BinaryExpression",
	KindConditionalExpression:    "ConditionalExpression",
	KindAssignmentExpression:     "AssignmentExpression",
	KindArrowFunction:            "ArrowFunction",
	KindParameterList:            "ParameterList",
	KindParenthesizedExpression:  "ParenthesizedExpression",
	KindCommaExpression:          "CommaExpression",
	KindAsExpression:             "AsExpression",
	KindSatisfiesExpression:      "SatisfiesExpression",
	KindNonNullExpression:        "NonNullExpression",
	KindObjectPattern:            "ObjectPattern",
	KindArrayPattern:             "ArrayPattern",
	KindPatternProperty:          "PatternProperty",
	KindRestElement:              "RestElement",
	KindDefaultValue:             "DefaultValue",
	KindTypeAnnotation:           "TypeAnnotation",
	KindTypeReference:            "TypeReference",
	KindUnionType:                "UnionType",
	KindIntersectionType:         "IntersectionType",
	KindArrayType:                "ArrayType",
	KindTupleType:                "TupleType",
	KindObjectType:               "ObjectType",
	KindPropertySignature:        "PropertySignature",
	KindFunctionType:             "FunctionType",
	KindTypeArguments:            "TypeArguments",
	KindTypeParameters:           "TypeParameters",
	KindTypeParameter:            "TypeParameter",
	KindLiteralType:              "LiteralType",
	KindParenthesizedType:        "ParenthesizedType",
	KindTypeQuery:                "TypeQuery",
	KindTypeOperator:             "TypeOperator",
	KindVarDeclaration:           "VarDeclaration",
	KindVariable:                 "Variable",
	KindFunctionDeclaration:      "FunctionDeclaration",
	KindBlockStatement:           "BlockStatement",
	KindExpressionStatement:      "ExpressionStatement",
	KindReturnStatement:          "ReturnStatement",
	KindIfStatement:              "IfStatement",
}

func (k NodeKind) String() string {
	if k < nodeKindCount && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}

// IsRegion reports whether k is the kind of a mustache region root.
func (k NodeKind) IsRegion() bool {
	return k >= KindIfStart && k <= KindSnippetEnd
}

// IsTypedVariant reports whether k is the typed half of a dual kind.
func (k NodeKind) IsTypedVariant() bool {
	return k >= KindIfStart && k <= KindSpreadOrShorthandTyped && (k-KindIfStart)%2 == 1
}

// Untyped returns the untyped half of a dual kind, or k itself.
func (k NodeKind) Untyped() NodeKind {
	if k.IsTypedVariant() {
		return k - 1
	}
	return k
}

// DualKind pairs the untyped and typed variant of a region kind. The two
// variants are parsed by different dialects of the host grammar.
type DualKind struct {
	Untyped NodeKind
	Typed   NodeKind
}

// Dual returns the DualKind whose untyped variant is k.
func Dual(k NodeKind) DualKind {
	invariant.Precondition(k >= KindIfStart && k <= KindSpreadOrShorthand && !k.IsTypedVariant(),
		"%s is not the untyped half of a dual kind", k)
	return DualKind{Untyped: k, Typed: k + 1}
}

// Select returns the variant for mode.
func (d DualKind) Select(mode lexer.LanguageMode) NodeKind {
	if mode.Typed() {
		return d.Typed
	}
	return d.Untyped
}
