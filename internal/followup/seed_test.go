package followup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSeedTemplatesParse(t *testing.T) {
	var file seedFile
	require.NoError(t, yaml.Unmarshal(seedYAML, &file))
	require.Len(t, file.Templates, 4)

	for i, tpl := range file.Templates {
		require.Equal(t, i+1, tpl.Sequence)
		require.NotEmpty(t, tpl.Name)
		require.NotEmpty(t, tpl.EmailSubject)
		require.NotEmpty(t, tpl.EmailBody)
		require.NotEmpty(t, tpl.SMSBody)
	}

	// Every seed email personalizes with the director's first name.
	for _, tpl := range file.Templates {
		require.True(t, strings.Contains(tpl.EmailBody, "{{first_name}}"),
			"template %d missing first_name token", tpl.Sequence)
	}
}
