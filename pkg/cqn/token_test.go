package cqn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToken_IsKeyword(t *testing.T) {
	assert.True(t, Kw("and").IsKeyword("and"))
	assert.False(t, Kw("and").IsKeyword("or"))
	assert.False(t, RefTok(NewRef("x")).IsKeyword("and"), "a non-keyword token never matches IsKeyword")
}

func TestTokens_Clone_IsDeep(t *testing.T) {
	toks := Tokens{
		RefTok(NewRef("a", "b")),
		Kw("="),
		LitTok(5),
		FuncTok("upper", RefTok(NewRef("name"))),
		XprTok(Tokens{Kw("x")}),
		ListTok(LitTok(1), LitTok(2)),
	}

	clone := toks.Clone()
	assert.Equal(t, toks, clone)

	clone[0].Ref.Steps[0].Name = "mutated"
	assert.Equal(t, "a", toks[0].Ref.Steps[0].Name)

	clone[3].Func.Args[0].Ref.Steps[0].Name = "mutated"
	assert.Equal(t, "name", toks[3].Func.Args[0].Ref.Steps[0].Name)

	clone[5].List[0].Literal.Val = 99
	assert.Equal(t, 1, toks[5].List[0].Literal.Val)
}

func TestTokens_Clone_Nil(t *testing.T) {
	var toks Tokens
	assert.Nil(t, toks.Clone())
}

func TestParamTok_NeverMaterialized(t *testing.T) {
	tok := ParamTok("id")
	assert.Equal(t, TokParam, tok.Kind)
	assert.Equal(t, "id", tok.Param.Name)
}
