package querylanguage

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var lex = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Compare", Pattern: `==|!=|>=|<=|>|<`},
	{Name: "Logic", Pattern: `&&|\|\|`},
	{Name: "Punct", Pattern: `[().]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var parser = participle.MustBuild[orNode](
	participle.Lexer(lex),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

type orNode struct {
	Pos   lexer.Position
	Left  *andNode   `parser:"@@"`
	Right []*andNode `parser:"( \"||\" @@ )*"`
}

type andNode struct {
	Pos   lexer.Position
	Left  *cmpNode   `parser:"@@"`
	Right []*cmpNode `parser:"( \"&&\" @@ )*"`
}

type cmpNode struct {
	Pos   lexer.Position
	Left  *termNode `parser:"@@"`
	Op    string    `parser:"( @Compare"`
	Right *termNode `parser:"  @@ )?"`
}

type termNode struct {
	Pos    lexer.Position
	Group  *orNode  `parser:"  \"(\" @@ \")\""`
	Str    *string  `parser:"| @String"`
	Number *string  `parser:"| @Number"`
	Bool   *string  `parser:"| @( \"true\" | \"false\" )"`
	Nil    bool     `parser:"| @\"nil\""`
	Ref    *refNode `parser:"| @@"`
}

// refNode is a property reference, either "Name" on the default binding or
// "binding.Name".
type refNode struct {
	Pos   lexer.Position
	Head  string `parser:"@Ident"`
	Field string `parser:"( \".\" @Ident )?"`
}
