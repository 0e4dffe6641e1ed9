package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"RfpIntel/internal/domain"
)

func TestDiscoverNew(t *testing.T) {
	t.Parallel()

	external := []domain.ExternalFile{
		{Name: "a.pdf", Key: "1"},
		{Name: "B.pdf", Key: "2"},
		{Name: "c.pdf", Key: "3"},
	}
	registered := []domain.Document{{Name: "a.pdf"}, {Name: "b.pdf"}}

	got := DiscoverNew(external, registered)
	assert.Equal(t, []domain.ExternalFile{{Name: "B.pdf", Key: "2"}, {Name: "c.pdf", Key: "3"}}, got)
	assert.Equal(t, got, DiscoverNew(external, registered))
}

func TestDiscoverNewEdges(t *testing.T) {
	t.Parallel()

	assert.Empty(t, DiscoverNew(nil, []domain.Document{{Name: "a.pdf"}}))

	external := []domain.ExternalFile{{Name: "a.pdf", Key: "1"}, {Name: "a.pdf", Key: "2"}}
	assert.Equal(t, external, DiscoverNew(external, nil))
	assert.Empty(t, DiscoverNew(external, []domain.Document{{Name: "a.pdf"}}))
}
