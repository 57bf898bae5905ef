package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringEmpty(t *testing.T) {
	_, err := ParseString("")
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseHeaderStripsBOM(t *testing.T) {
	parser, err := ParseString("\xEF\xBB\xBFname,phone\nAmina,9876543210\n")
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())
	assert.Equal(t, []string{"name", "phone"}, parser.Headers())
}

func TestReadAllRows(t *testing.T) {
	parser, err := ParseString("name,phone,ignored\nAmina,9876543210,x\n,,\nBeevi,,y\n")
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	rows, err := parser.ReadAllRows(map[string]string{"name": "name", "phone": "phone"})
	require.NoError(t, err)
	require.Len(t, rows, 2, "fully empty rows are skipped")

	assert.Equal(t, "Amina", rows[0].Get("name"))
	assert.Equal(t, "9876543210", rows[0].Get("phone"))
	assert.Equal(t, 2, rows[0].LineNumber)
	assert.Equal(t, "", rows[0].Get("ignored"), "unmapped headers dropped")

	assert.Equal(t, "Beevi", rows[1].Get("name"))
	assert.Equal(t, 4, rows[1].LineNumber)
}

func TestReadAllRowsRaggedRecords(t *testing.T) {
	parser, err := ParseString("name,phone\nAmina\n")
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	rows, err := parser.ReadAllRows(IdentityMap(parser.Headers()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Amina", rows[0].Get("name"))
	assert.Equal(t, "", rows[0].Get("phone"))
}

func TestMapMemberHeaders(t *testing.T) {
	raw := []string{"Name of Member", "House Number", "PHONE NO", "Block", "cluster name", "Account No", "Husband", "Address Line", "WhatsApp Number", "Unrelated"}
	mapped := MapMemberHeaders(raw)

	assert.Equal(t, "name", mapped["Name of Member"])
	assert.Equal(t, "houseNumber", mapped["House Number"])
	assert.Equal(t, "phone", mapped["PHONE NO"])
	assert.Equal(t, "block", mapped["Block"])
	assert.Equal(t, "cluster", mapped["cluster name"])
	assert.Equal(t, "accountNumber", mapped["Account No"])
	assert.Equal(t, "husbandName", mapped["Husband"])
	assert.Equal(t, "address", mapped["Address Line"])
	assert.Equal(t, "whatsapp", mapped["WhatsApp Number"])
	_, ok := mapped["Unrelated"]
	assert.False(t, ok)
}

func TestMissingMemberHeaders(t *testing.T) {
	mapped := MapMemberHeaders([]string{"Name", "Block"})
	missing := MissingMemberHeaders(mapped)
	assert.ElementsMatch(t, []string{"houseNumber", "cluster"}, missing)

	mapped = MapMemberHeaders([]string{"Name", "House No", "Block", "Cluster"})
	assert.Empty(t, MissingMemberHeaders(mapped))
}
