package parse

import (
	"github.com/alecthomas/participle"
	"github.com/alecthomas/participle/lexer"
)

// The lexer skips whitespace and '#' comments. Keywords are matched as
// whole words before identifiers, so a symbol that spells a keyword must
// be quoted.
var textLexer = lexer.Unquote(lexer.Must(lexer.Regexp(
	`(\s+)`+
		`|(#[^\n]*)`+
		`|(?P<Keyword>\b(?:if|and|tag|default|merge)\b)`+
		`|(?P<Ident>[\p{L}_][\p{L}\p{N}_]*)`+
		`|(?P<Number>\d*\.?\d+(?:[eE][-+]?\d+)?)`+
		`|(?P<String>"(?:\\.|[^"\\])*")`+
		`|(?P<Operators>=>|[-+*/,.(){}:])`,
)), "String")

var (
	programParser = participle.MustBuild(&program{}, textLexer)
	queryParser   = participle.MustBuild(&query{}, textLexer)
	mergeParser   = participle.MustBuild(&mergeDef{}, textLexer)
)

type program struct {
	Clauses []*clause `parser:"{ @@ [ \".\" ] }"`
}

type query struct {
	Body *body `parser:"@@ [ \".\" ]"`
}

type clause struct {
	Tag  *tagDecl `parser:"  @@"`
	Rule *rule    `parser:"| @@"`
}

type tagDecl struct {
	Name    string    `parser:"\"tag\" @Ident"`
	Default *literal  `parser:"[ \"default\" @@ ]"`
	Merge   *mergeDef `parser:"[ \"merge\" @@ ]"`
}

type mergeDef struct {
	Left  string `parser:"@Ident \",\""`
	Right string `parser:"@Ident \"=>\""`
	Body  *expr  `parser:"@@"`
}

type rule struct {
	Head *tuple    `parser:"@@"`
	Tags []*tagVal `parser:"[ \"{\" @@ { \",\" @@ } \"}\" ]"`
	Body *body     `parser:"[ \"if\" @@ ]"`
}

type body struct {
	Goals []*tuple `parser:"@@ { \"and\" @@ }"`
}

type tuple struct {
	Args []*arg `parser:"\"(\" [ @@ { \",\" @@ } ] \")\""`
}

type arg struct {
	Tuple *tuple   `parser:"  @@"`
	Value *literal `parser:"| @@"`
}

type tagVal struct {
	Key   string   `parser:"@Ident \":\""`
	Value *literal `parser:"@@"`
}

type literal struct {
	Neg    bool    `parser:"[ @\"-\" ]"`
	Number *string `parser:"( @Number"`
	Str    *string `parser:"| @String"`
	Ident  *string `parser:"| @Ident )"`
}

// Merge expressions: sums of products of factors.

type expr struct {
	Left *product `parser:"@@"`
	Rest []*sum   `parser:"{ @@ }"`
}

type sum struct {
	Op    string   `parser:"( @\"+\" | @\"-\" )"`
	Right *product `parser:"@@"`
}

type product struct {
	Left *factor `parser:"@@"`
	Rest []*mul  `parser:"{ @@ }"`
}

type mul struct {
	Op    string  `parser:"( @\"*\" | @\"/\" )"`
	Right *factor `parser:"@@"`
}

type factor struct {
	Neg    bool    `parser:"[ @\"-\" ]"`
	Number *string `parser:"( @Number"`
	Call   *call   `parser:"| @@"`
	Sub    *expr   `parser:"| \"(\" @@ \")\" )"`
}

type call struct {
	Name string  `parser:"@Ident"`
	Args []*expr `parser:"[ \"(\" @@ { \",\" @@ } \")\" ]"`
}
