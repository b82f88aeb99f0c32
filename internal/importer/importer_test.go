package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	data := "Name,Phone Number,Company\nAda,+15550001,Acme\nBob,,Initech\nCy, +15550003 ,\n"

	res, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "Phone Number", res.PhoneColumn)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Contacts, 2)
	assert.Equal(t, Contact{Phone: "+15550001", Name: "Ada", Fields: map[string]string{"Company": "Acme"}}, res.Contacts[0])
	assert.Equal(t, "+15550003", res.Contacts[1].Phone)
	assert.Nil(t, res.Contacts[1].Fields)
	assert.Equal(t, []string{"+15550001", "+15550003"}, res.Phones())
}

func TestPhoneColumnDetection(t *testing.T) {
	for _, header := range []string{"phone", "PHONE_NUMBER", "Number", "phone number"} {
		res, err := ParseCSV(strings.NewReader(header + "\n+15550001\n"))
		require.NoError(t, err, header)
		assert.Equal(t, []string{"+15550001"}, res.Phones(), header)
	}

	_, err := ParseCSV(strings.NewReader("name,email\nAda,ada@example.com\n"))
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
}

func TestParseCSVMalformed(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrUnreadableFile)

	_, err = ParseCSV(strings.NewReader("phone,name\n\"+1555,Ada\n"))
	assert.ErrorIs(t, err, domain.ErrUnreadableFile)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"phone", "name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"+15550001", "Ada"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]string{"+15550002", "Bob"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := Parse(bytes.NewReader(buf.Bytes()), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, []string{"+15550001", "+15550002"}, res.Phones())
	assert.Equal(t, "Bob", res.Contacts[1].Name)

	_, err = ParseXLSX(strings.NewReader("not a workbook"))
	assert.ErrorIs(t, err, domain.ErrUnreadableFile)
}

func TestFormatFromFilename(t *testing.T) {
	f, err := FormatFromFilename("contacts.CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = FormatFromFilename("contacts.xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = FormatFromFilename("contacts.pdf")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	_, err = Parse(strings.NewReader(""), Format("xml"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
