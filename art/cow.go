// Package art draws chat messages as ASCII cows and knows which cows exist.
package art

import (
	"cow-chat/contract"
	"cow-chat/domain"
	"path"
	"slices"
	"strings"

	cowsay "github.com/Code-Hex/Neo-cowsay/v2"
	"github.com/samber/lo"
)

var (
	_ contract.Renderer = CowRenderer{}
	_ contract.Catalog  = (*CowCatalog)(nil)
)

// CowRenderer speaks a caption through the cow file named after the identity.
type CowRenderer struct{}

func (CowRenderer) Render(caption string, identity domain.Identity) (string, error) {
	return cowsay.Say(caption, cowsay.Type(string(identity)))
}

// CowCatalog is the immutable set of cow names sessions can log in with.
type CowCatalog struct {
	names []domain.Identity
	set   map[domain.Identity]struct{}
}

// NewCowCatalog lists the cows bundled in the cowsay binary.
func NewCowCatalog() *CowCatalog {
	return NewCatalog(lo.Map(cowsay.CowsInBinary(), func(name string, _ int) string {
		return strings.TrimSuffix(path.Base(name), ".cow")
	})...)
}

func NewCatalog(names ...string) *CowCatalog {
	ids := lo.Uniq(lo.Map(names, func(name string, _ int) domain.Identity {
		return domain.Identity(name)
	}))
	slices.Sort(ids)
	return &CowCatalog{
		names: ids,
		set:   lo.Keyify(ids),
	}
}

func (c *CowCatalog) Contains(identity domain.Identity) bool {
	_, ok := c.set[identity]
	return ok
}

func (c *CowCatalog) Identities() []domain.Identity {
	return slices.Clone(c.names)
}
