package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Censor_Masks_Forbidden_Words(t *testing.T) {
	req := require.New(t)
	mod, err := New([]string{"spoiler"}, '*')
	req.NoError(err)

	req.Equal("no ******* here", mod.Censor("no spoiler here"))
}

func Test_Censor_Is_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	mod, err := New([]string{"spoiler"}, '*')
	req.NoError(err)

	req.Equal("*******!", mod.Censor("SpOiLeR!"))
}

func Test_Censor_Catches_Punctuated_Variants(t *testing.T) {
	req := require.New(t)
	mod, err := New([]string{"bad"}, '*')
	req.NoError(err)

	req.Equal("so *****, wow", mod.Censor("so b.a.d, wow"))
	req.Equal("*****", mod.Censor("b a d"))
}

func Test_Censor_Leaves_Clean_Text_Untouched(t *testing.T) {
	req := require.New(t)
	mod, err := New([]string{"bad"}, '*')
	req.NoError(err)

	clean := "a perfectly fine sentence"
	req.Equal(clean, mod.Censor(clean))
}

func Test_Censor_Masks_Multiple_Occurrences(t *testing.T) {
	req := require.New(t)
	mod, err := New([]string{"bad", "worse"}, '*')
	req.NoError(err)

	req.Equal("*** then *****", mod.Censor("bad then worse"))
}

func Test_Empty_Word_List_Is_Passthrough(t *testing.T) {
	req := require.New(t)
	mod, err := New(nil, '*')
	req.NoError(err)

	req.Equal("anything goes", mod.Censor("anything goes"))
}

func Test_Words_That_Normalize_To_Nothing_Are_Skipped(t *testing.T) {
	req := require.New(t)
	mod, err := New([]string{"...", "  "}, '*')
	req.NoError(err)

	req.Equal("dots ... stay", mod.Censor("dots ... stay"))
}
