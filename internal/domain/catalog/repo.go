package catalog

import "context"

// Repository persists guideline tables.
type Repository interface {
	// Load reads every table into a catalog, rows in their stored order.
	Load(ctx context.Context) (*Catalog, error)
	// Replace atomically replaces the stored catalog with c.
	Replace(ctx context.Context, c *Catalog) error
}

// RepositorySource adapts a Repository to a Source.
type RepositorySource struct {
	Repo Repository
}

func (RepositorySource) Name() string { return "postgres" }

func (r RepositorySource) Load(ctx context.Context) (*Catalog, error) {
	return r.Repo.Load(ctx)
}

// Seed validates c and writes it through repo.
func Seed(ctx context.Context, repo Repository, c *Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return repo.Replace(ctx, c)
}
