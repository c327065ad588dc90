package eqtb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/eqtb"
	"github.com/ha1tch/gotex/token"
)

func TestGroupingLawRestoresNonGlobalAssignments(t *testing.T) {
	tb := eqtb.New()
	tb.Define("foo", eqtb.Meaning{Kind: eqtb.Primitive, Name: "foo", Value: 1}, false)

	tb.PushGroup(1)
	tb.Define("foo", eqtb.Meaning{Kind: eqtb.Primitive, Name: "foo", Value: 2}, false)
	m, ok := tb.Meaning("foo")
	require.True(t, ok)
	require.EqualValues(t, 2, m.Value)

	require.NoError(t, tb.PopGroup())
	m, ok = tb.Meaning("foo")
	require.True(t, ok)
	require.EqualValues(t, 1, m.Value, "value should revert to its pre-group assignment")
}

func TestGlobalAssignmentSurvivesGroupClose(t *testing.T) {
	tb := eqtb.New()
	tb.PushGroup(1)
	tb.Define("bar", eqtb.Meaning{Kind: eqtb.Primitive, Value: 42}, true)
	require.NoError(t, tb.PopGroup())

	m, ok := tb.Meaning("bar")
	require.True(t, ok)
	require.EqualValues(t, 42, m.Value)
}

func TestCountRegisterRestoresOnGroupClose(t *testing.T) {
	tb := eqtb.New()
	tb.SetCount(0, 10, false)
	tb.PushGroup(1)
	tb.SetCount(0, 99, false)
	require.EqualValues(t, 99, tb.Count(0))
	require.NoError(t, tb.PopGroup())
	require.EqualValues(t, 10, tb.Count(0))
}

func TestPopGroupWithoutPushFails(t *testing.T) {
	tb := eqtb.New()
	require.Error(t, tb.PopGroup())
}

func TestDefaultCatCodesSeeded(t *testing.T) {
	tb := eqtb.New()
	require.Equal(t, token.Escape, tb.CatCode('\\'))
	require.Equal(t, token.Letter, tb.CatCode('a'))
}
