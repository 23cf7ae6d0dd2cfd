package keyboard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkcheep/parkcheep-bot/internal/conversation"
)

func TestInline_BuildsRows(t *testing.T) {
	markup := Inline([][]conversation.Button{
		{{Text: "Yes", Data: "show_carparks"}},
		{{Text: "No, my destination is wrong", Data: "change_destination"}},
	})

	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "Yes", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "show_carparks", markup.InlineKeyboard[0][0].Data)
}

func TestInline_EmptyInput(t *testing.T) {
	assert.Nil(t, Inline(nil))
	assert.Nil(t, Inline([][]conversation.Button{{}}))
}

func TestValidateData(t *testing.T) {
	assert.NoError(t, ValidateData("show_more"))
	assert.Error(t, ValidateData(""))
	assert.Error(t, ValidateData(strings.Repeat("x", CallbackDataLimitBytes+1)))
}

func TestNormalizeData(t *testing.T) {
	assert.Equal(t, "show_more", NormalizeData("show_more"))
	assert.Equal(t, "show_more", NormalizeData("\fshow_more"))
	assert.Equal(t, "show_more", NormalizeData("show_more|payload"))
}
