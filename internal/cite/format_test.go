package cite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paperstudio/backend/internal/models"
)

func sample() models.CreateCitationRequest {
	return models.CreateCitationRequest{
		Type:      models.CiteJournal,
		Title:     "On Computable Numbers",
		Authors:   []string{"Alan Turing"},
		Date:      "1936-11-12",
		Publisher: "Proc. London Math. Soc.",
		URL:       "https://example.org/turing1936",
	}
}

func TestAPA(t *testing.T) {
	got := APA(sample())
	assert.Equal(t, "Turing, A. (1936). On Computable Numbers. Proc. London Math. Soc.. https://example.org/turing1936", got)
}

func TestAPAPrefersDOI(t *testing.T) {
	c := sample()
	c.DOI = "10.1112/plms/s2-42.1.230"
	got := APA(c)
	assert.Contains(t, got, "https://doi.org/10.1112/plms/s2-42.1.230")
	assert.NotContains(t, got, "example.org")
}

func TestMLA(t *testing.T) {
	got := MLA(sample())
	assert.Equal(t, `Turing, Alan. "On Computable Numbers." Proc. London Math. Soc., 1936-11-12, https://example.org/turing1936`, got)
}

func TestChicago(t *testing.T) {
	got := Chicago(sample())
	assert.Equal(t, `Turing, Alan. "On Computable Numbers." Proc. London Math. Soc.. 1936-11-12. https://example.org/turing1936`, got)
}

func TestIEEE(t *testing.T) {
	got := IEEE(sample())
	assert.Equal(t, `A. Turing, "On Computable Numbers," Proc. London Math. Soc., 1936. [Online]. Available: https://example.org/turing1936`, got)
}

func TestTwoAuthors(t *testing.T) {
	c := sample()
	c.Authors = []string{"Ada Lovelace", "Alan Turing"}

	assert.Contains(t, APA(c), "Lovelace, A., & Turing, A.")
	assert.Contains(t, MLA(c), "Lovelace, Ada, and Alan Turing.")
	assert.Contains(t, IEEE(c), "A. Lovelace and A. Turing,")
}

func TestManyAuthorsEtAl(t *testing.T) {
	c := sample()
	c.Authors = []string{"Ada Lovelace", "Alan Turing", "Grace Hopper"}
	assert.Contains(t, MLA(c), "Lovelace, Ada, et al.")
}

func TestNoAuthorsNoDate(t *testing.T) {
	c := models.CreateCitationRequest{
		Type:  models.CiteWebsite,
		Title: "Untitled Memo",
		URL:   "https://example.org/memo",
	}
	assert.Equal(t, "(n.d.). Untitled Memo. https://example.org/memo", APA(c))
	assert.Contains(t, IEEE(c), "n.d..")
}

func TestAllComputesFourStyles(t *testing.T) {
	apa, mla, chicago, ieee := All(sample())
	for _, s := range []string{apa, mla, chicago, ieee} {
		assert.Contains(t, s, "On Computable Numbers")
	}
	assert.NotEqual(t, apa, mla)
	assert.NotEqual(t, chicago, ieee)
}
