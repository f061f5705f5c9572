// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package format

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/npspy/pkg/errutil"
	"github.com/holomush/npspy/pkg/npapi"
)

func mustCapture(t *testing.T, ev CallEvent) *CapturedEvent {
	t.Helper()
	c, err := Capture(ev)
	require.NoError(t, err)
	return c
}

func TestActions_SignatureTable(t *testing.T) {
	seenKeys := make(map[string]Action)
	seenNames := make(map[string]Action)
	for _, a := range Actions() {
		sig, ok := a.signature()
		require.True(t, ok, "action %d has no signature", a)
		assert.NotEmpty(t, sig.name, "action %d", a)
		assert.NotEmpty(t, sig.key, "action %s", sig.name)
		assert.LessOrEqual(t, len(sig.params), MaxArgs, "action %s", sig.name)

		_, dup := seenKeys[sig.key]
		assert.False(t, dup, "duplicate key %s", sig.key)
		seenKeys[sig.key] = a
		_, dup = seenNames[sig.name]
		assert.False(t, dup, "duplicate name %s", sig.name)
		seenNames[sig.name] = a

		for _, prm := range sig.params {
			assert.NotEqual(t, "unknown", prm.kind.String(), "%s.%s", sig.name, prm.name)
		}
	}
	assert.Len(t, Actions(), 59)
}

func TestAction_ParseAndDirection(t *testing.T) {
	a, ok := ParseAction("  NPN_Get_URL ")
	require.True(t, ok)
	assert.Equal(t, ActionNPNGetURL, a)
	assert.True(t, a.IsNPN())
	assert.False(t, a.IsNPP())

	assert.True(t, ActionNPPWrite.IsNPP())
	assert.True(t, ActionNPInitialize.IsNPP())

	_, ok = ParseAction("npn_nope")
	assert.False(t, ok)

	assert.Equal(t, "Unlisted action", Action(999).String())
	assert.Equal(t, "", ActionInvalid.Key())
	assert.Equal(t, "NPN_GetURL(instance, url, target)", ActionNPNGetURL.Signature())
	assert.Equal(t, 7, ActionNPPNew.Arity())
}

func TestCapture_Short(t *testing.T) {
	c := mustCapture(t, CallEvent{
		Action: ActionNPNGetURL,
		Args:   []Arg{Instance(&npapi.NPP{}), String("http://a"), String("_top")},
		Short:  true,
	})
	assert.Empty(t, c.Args)
	assert.Equal(t, "NPN_GetURL\n", Format(c, LF))
}

func TestCapture_UnknownActionCapturesNothing(t *testing.T) {
	c := mustCapture(t, CallEvent{Action: Action(500), Args: []Arg{Int(1)}})
	assert.Empty(t, c.Args)
	assert.Equal(t, "Unlisted action\r\n", Format(c, CRLF))
}

func TestCapture_TooManyArgs(t *testing.T) {
	args := make([]Arg, MaxArgs+1)
	for i := range args {
		args[i] = Int(int64(i))
	}
	_, err := Capture(CallEvent{Action: ActionNPPNew, Args: args})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeTooManyArgs)
}

func TestCapture_KindMismatch(t *testing.T) {
	_, err := Capture(CallEvent{
		Action: ActionNPNGetURL,
		Args:   []Arg{Instance(nil), Int(4), String("")},
	})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeArgMismatch)
	errutil.AssertErrorContext(t, err, "param", "url")
}

func TestCapture_ArityMismatch(t *testing.T) {
	_, err := Capture(CallEvent{Action: ActionNPNStatus, Args: []Arg{Instance(nil)}})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeArgMismatch)
}

func TestCapture_NullPointersCaptureEmpty(t *testing.T) {
	c := mustCapture(t, CallEvent{
		Action: ActionNPPSetWindow,
		Args:   []Arg{Instance(nil), Window(nil)},
	})
	require.Len(t, c.Args, 2)
	assert.True(t, c.Args[0].Null)
	assert.True(t, c.Args[1].Null)
	assert.Nil(t, c.Args[1].Value)
	assert.Equal(t, "NPP_SetWindow(NULL, NULL)\n", Format(c, LF))
}

func TestCapture_CopiesReferencedStructs(t *testing.T) {
	win := &npapi.Window{Window: 0x10, Width: 320, Height: 200, Type: npapi.WindowTypeWindow}
	c := mustCapture(t, CallEvent{
		Action: ActionNPPSetWindow,
		Args:   []Arg{Instance(&npapi.NPP{}), Window(win)},
	})

	// Mutating the original after capture must not change the record.
	win.Width = 1
	win.Type = npapi.WindowTypeDrawable

	line := Format(c, LF)
	assert.Contains(t, line, "width=320")
	assert.Contains(t, line, "type=NPWindowTypeWindow")
}

func TestCapture_AbbreviatesLongStrings(t *testing.T) {
	long := "http://example.com/" + strings.Repeat("z", 200)
	c := mustCapture(t, CallEvent{
		Action: ActionNPNGetURL,
		Args:   []Arg{Instance(&npapi.NPP{}), String(long), String("_blank")},
	})
	assert.Equal(t, len(long), c.Args[1].Length)
	assert.Equal(t, long[:WrapLength]+"...", c.Args[1].Value)
}

func TestFormat_GetURL(t *testing.T) {
	inst := &npapi.NPP{}
	c := mustCapture(t, CallEvent{
		Action: ActionNPNGetURL,
		Args:   []Arg{Instance(inst), String("http://a/b"), String("_blank")},
	})
	want := fmt.Sprintf("NPN_GetURL(%p, \"http://a/b\", \"_blank\")\n", inst)
	assert.Equal(t, want, Format(c, LF))
}

func TestFormat_NPPNew(t *testing.T) {
	inst := &npapi.NPP{}
	c := mustCapture(t, CallEvent{
		Action: ActionNPPNew,
		Args: []Arg{
			String("application/x-test"), Instance(inst), Uint(uint64(npapi.ModeEmbed)), Int(2),
			StringList([]string{"src", "width"}), StringList([]string{"a.tst", "100"}), SavedData(nil),
		},
	})
	line := Format(c, LF)
	assert.True(t, strings.HasPrefix(line, `NPP_New("application/x-test", `))
	assert.Contains(t, line, `{"src", "width"}, {"a.tst", "100"}, NULL)`)
}

func TestFormat_EnumsUseNamesWithUnlistedFallback(t *testing.T) {
	inst := &npapi.NPP{}
	c := mustCapture(t, CallEvent{
		Action: ActionNPPDestroyStream,
		Args:   []Arg{Instance(inst), Stream(&npapi.Stream{URL: "u"}), Reason(npapi.ReasonUserBreak)},
	})
	assert.Contains(t, Format(c, LF), "NPRES_USER_BREAK)")

	c = mustCapture(t, CallEvent{
		Action: ActionNPNGetValue,
		Args:   []Arg{Instance(inst), NPNVariable(npapi.NPNVariable(77)), Pointer(nil)},
	})
	assert.Contains(t, Format(c, LF), "Unlisted value, NULL)")
}

func TestFormat_WriteBufferIsPrintable(t *testing.T) {
	c := mustCapture(t, CallEvent{
		Action: ActionNPPWrite,
		Args: []Arg{
			Instance(&npapi.NPP{}), Stream(&npapi.Stream{URL: "http://s"}),
			Int(0), Int(5), Bytes([]byte{'h', 'i', 0x00, '\n', 'x'}),
		},
	})
	assert.Contains(t, Format(c, LF), `"hi..x" (5 bytes))`)
}

func TestFormat_ByteRangeAndVariants(t *testing.T) {
	ranges := &npapi.ByteRange{Offset: 0, Length: 10, Next: &npapi.ByteRange{Offset: 20, Length: 5}}
	c := mustCapture(t, CallEvent{
		Action: ActionNPNRequestRead,
		Args:   []Arg{Stream(&npapi.Stream{}), ByteRange(ranges)},
	})
	assert.Contains(t, Format(c, LF), "[{offset=0, length=10}, {offset=20, length=5}]")

	obj := &npapi.Object{ReferenceCount: 2}
	c = mustCapture(t, CallEvent{
		Action: ActionNPNInvoke,
		Args: []Arg{
			Instance(&npapi.NPP{}), Object(obj), Identifier(0x2a),
			VariantList([]npapi.Variant{{Type: npapi.VariantInt32, Value: int32(5)}, {Type: npapi.VariantString, Value: "hi"}}),
			Int(2), Pointer(&npapi.Variant{}),
		},
	})
	line := Format(c, LF)
	assert.Contains(t, line, "{refcount=2}")
	assert.Contains(t, line, "0x2a")
	assert.Contains(t, line, `[{NPVariantType_Int32, 5}, {NPVariantType_String, "hi"}]`)
}

func TestFormatReturn(t *testing.T) {
	assert.Equal(t, "---Return: 0 (NPERR_NO_ERROR)\n", FormatReturn(npapi.NoError, LF))
	assert.Equal(t, "---Return: 42 (Unlisted value)\n", FormatReturn(npapi.NPError(42), LF))
	assert.Equal(t, "---Return: true\r\n", FormatReturn(true, CRLF))
	assert.Equal(t, "---Return: 1024\n", FormatReturn(int32(1024), LF))
	assert.Equal(t, "---Return: \"Mozilla/5.0\"\n", FormatReturn("Mozilla/5.0", LF))
	assert.Equal(t, "---Return: NULL\n", FormatReturn(nil, LF))
}
