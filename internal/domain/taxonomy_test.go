package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomain_Parse(t *testing.T) {
	for _, d := range Domains() {
		got, err := ParseDomain(" " + d.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}

	got, err := ParseDomain("stem")
	require.NoError(t, err)
	assert.Equal(t, DomainSTEM, got)

	_, err = ParseDomain("Sports")
	assert.ErrorIs(t, err, ErrUnknownDomain)
	assert.False(t, DomainUnknown.Valid())
	assert.Equal(t, "Domain(9)", Domain(9).String())
}

func TestDomain_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]Domain{"top": DomainCreative})
	require.NoError(t, err)
	assert.JSONEq(t, `{"top":"Creative"}`, string(data))

	var out struct{ Top Domain }
	require.NoError(t, json.Unmarshal([]byte(`{"Top":"Business"}`), &out))
	assert.Equal(t, DomainBusiness, out.Top)
}

func TestFamilies(t *testing.T) {
	roles := RoleTypeFamily()
	assert.Len(t, roles.Categories, 11)
	assert.Equal(t, "Specialist", roles.Categories[0])
	assert.True(t, roles.Contains("Sales/Marketing"))

	assert.Equal(t, []string{"STEM", "Humanities", "Creative", "Business"}, DomainFamily().Categories)
	assert.Equal(t, []string{"STEM", "Humanities", "CreativeArts", "Business"}, RoleCareerDomainFamily().Categories)
	assert.False(t, RoleCareerDomainFamily().Contains(string(RoleCreative)), "the Creative role type stays out of the domains")

	lines := CareerLineFamily()
	assert.Equal(t, []string{"Linear", "Non-linear", "Diagonal", "Horizontal"}, lines.Categories)

	r, err := ParseRoleType("human resources")
	require.NoError(t, err)
	assert.Equal(t, RoleHumanResources, r)
	_, err = ParseCareerLine("zigzag")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("role_career")
	require.NoError(t, err)
	assert.Equal(t, VariantRoleCareer, v)

	_, err = ParseVariant("tarot")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestReferenceKey_String(t *testing.T) {
	assert.Equal(t, "STEM+Business", MajorMinorKey(DomainSTEM, DomainBusiness).String())
	assert.Equal(t, "Creative/Technical/Diagonal",
		RoleCareerKey(DomainCreative, RoleTechnical, LineDiagonal).String())
}
