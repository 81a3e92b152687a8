package tags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleTags = "!_TAG_FILE_FORMAT\t2\t/extended format/\n" +
	"!_TAG_FILE_SORTED\t0\t/0=unsorted/\n" +
	"Foo\tsrc/Foo.java\t3;\"\tc\n" +
	"run\tsrc/Foo.java\t7;\"\tm\tclass:Foo\n" +
	"com.example\tsrc/Foo.java\t1;\"\tp\n"

func Test_ParseTags_Sample(t *testing.T) {
	tags, err := ParseTags(strings.NewReader(sampleTags))
	require.NoError(t, err)
	require.Len(t, tags, 3)

	require.Equal(t, Tag{Name: "Foo", File: "src/Foo.java", Line: 3, Kind: 'c'}, tags[0])
	require.Equal(t, Tag{Name: "run", File: "src/Foo.java", Line: 7, Kind: 'm', ScopeKind: "class", Scope: "Foo"}, tags[1])
	require.False(t, tags[2].IsDefinition())
	require.True(t, tags[0].IsDefinition())
}

func Test_ParseTags_LongKindField(t *testing.T) {
	tags, err := ParseTags(strings.NewReader("main\tmain.go\t12;\"\tkind:function\tfile:\n"))
	require.NoError(t, err)
	require.Len(t, tags, 1)
	require.Equal(t, byte('f'), tags[0].Kind)
	require.Equal(t, 12, tags[0].Line)
	require.Empty(t, tags[0].Scope)
}

func Test_ParseTags_Empty(t *testing.T) {
	tags, err := ParseTags(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, tags)
}

func Test_ParseTags_Malformed(t *testing.T) {
	_, err := ParseTags(strings.NewReader("just-a-name\n"))
	require.Error(t, err)
}
