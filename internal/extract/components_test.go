package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the Component Heuristic:
// - Component-cased names in .tsx resolve to JSX.Element
// - Lowercase names returning markup in .tsx resolve to JSX.Element
// - Parenthesized and block-body JSX returns count as markup
// - Explicit return annotations always win
// - The heuristic never fires outside .tsx files
// - Markup inside a nested callback is not attributed to the outer function
// - Non-alphabetic leading characters do not count as component-cased

func TestComponents_UppercaseName(t *testing.T) {
	t.Parallel()

	src := `
export function UserCard(props: { name: string }) {
	return <div>{props.name}</div>
}
`
	result := parseSource(t, "card.tsx", src)

	sig := findFunction(result, "UserCard")
	require.NotNil(t, sig, "UserCard not found")
	assert.Equal(t, "JSX.Element", sig.ReturnType)
	assert.Equal(t, "UserCard(props: { name: string }): JSX.Element", sig.FullSignature)
}

func TestComponents_LowercaseNameReturningMarkup(t *testing.T) {
	t.Parallel()

	src := `const renderFooter = () => <footer />`
	result := parseSource(t, "footer.tsx", src)

	sig := findFunction(result, "renderFooter")
	require.NotNil(t, sig)
	assert.Equal(t, "JSX.Element", sig.ReturnType)
}

func TestComponents_ParenthesizedAndBlockReturns(t *testing.T) {
	t.Parallel()

	src := `
const list = () => (
	<ul>
		<li>one</li>
	</ul>
)

function table(rows: number) {
	if (rows === 0) {
		return null
	}
	return <table />
}
`
	result := parseSource(t, "markup.tsx", src)

	list := findFunction(result, "list")
	require.NotNil(t, list)
	assert.Equal(t, "JSX.Element", list.ReturnType)

	table := findFunction(result, "table")
	require.NotNil(t, table)
	assert.Equal(t, "JSX.Element", table.ReturnType)
}

func TestComponents_AnnotationWins(t *testing.T) {
	t.Parallel()

	src := `export function Legend(): string { return "legend" }`
	result := parseSource(t, "legend.tsx", src)

	sig := findFunction(result, "Legend")
	require.NotNil(t, sig)
	assert.Equal(t, "string", sig.ReturnType)
}

func TestComponents_PlainTypeScriptUnaffected(t *testing.T) {
	t.Parallel()

	// Test: a component-cased name in a .ts file keeps the normal defaults
	src := `
function Builder(x: number) { return x }

const Maker = (x: number) => x
`
	result := parseSource(t, "builder.ts", src)

	builder := findFunction(result, "Builder")
	require.NotNil(t, builder)
	assert.Equal(t, "void", builder.ReturnType)

	maker := findFunction(result, "Maker")
	require.NotNil(t, maker)
	assert.Equal(t, "inferred", maker.ReturnType)
}

func TestComponents_NestedCallbackNotAttributed(t *testing.T) {
	t.Parallel()

	src := `
function useThing() {
	const inner = () => <div />
	return inner
}
`
	result := parseSource(t, "hook.tsx", src)

	outer := findFunction(result, "useThing")
	require.NotNil(t, outer)
	assert.Equal(t, "void", outer.ReturnType)

	inner := findFunction(result, "inner")
	require.NotNil(t, inner)
	assert.Equal(t, "JSX.Element", inner.ReturnType)
}

func TestComponents_NonAlphabeticName(t *testing.T) {
	t.Parallel()

	// Test: an underscore-led name is not component-cased
	src := `const _helper = (n: number) => n + 1`
	result := parseSource(t, "helper.tsx", src)

	sig := findFunction(result, "_helper")
	require.NotNil(t, sig)
	assert.Equal(t, "inferred", sig.ReturnType)
}
