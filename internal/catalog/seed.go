package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"template-storefront/internal/model"
	"template-storefront/internal/repository"

	"gopkg.in/yaml.v3"
)

type SeedFile struct {
	Categories []SeedCategory `yaml:"categories"`
	Products   []SeedProduct  `yaml:"products"`
}

type SeedCategory struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

type SeedProduct struct {
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Slug          string `yaml:"slug"`
	Description   string `yaml:"description"`
	Price         int64  `yaml:"price"`
	OriginalPrice *int64 `yaml:"original_price"`
	AssetURL      string `yaml:"asset_url"`
	Status        string `yaml:"status"`
	Featured      bool   `yaml:"featured"`
	Category      string `yaml:"category"`
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func Parse(data []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

func LoadFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Models validates the file and converts it to rows ready for insertion.
func (f *SeedFile) Models() ([]model.Category, []model.Product, error) {
	var errs []error

	categories := make([]model.Category, 0, len(f.Categories))
	known := make(map[string]bool, len(f.Categories))
	for i, c := range f.Categories {
		if c.ID == "" || c.Name == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: id and name are required", i))
			continue
		}
		slug := c.Slug
		if slug == "" {
			slug = Slugify(c.Name)
		}
		known[c.ID] = true
		categories = append(categories, model.Category{
			ID:          c.ID,
			Name:        c.Name,
			Slug:        slug,
			Description: c.Description,
		})
	}

	products := make([]model.Product, 0, len(f.Products))
	for i, p := range f.Products {
		status := model.ProductStatus(strings.ToUpper(p.Status))
		if status == "" {
			status = model.ProductActive
		}
		switch {
		case p.ID == "" || p.Title == "":
			errs = append(errs, fmt.Errorf("products[%d]: id and title are required", i))
			continue
		case p.Price <= 0:
			errs = append(errs, fmt.Errorf("products[%d]: price must be positive", i))
			continue
		case p.AssetURL == "":
			errs = append(errs, fmt.Errorf("products[%d]: asset_url is required", i))
			continue
		case !status.Valid():
			errs = append(errs, fmt.Errorf("products[%d]: unknown status %q", i, p.Status))
			continue
		case !known[p.Category]:
			errs = append(errs, fmt.Errorf("products[%d]: unknown category %q", i, p.Category))
			continue
		}
		slug := p.Slug
		if slug == "" {
			slug = Slugify(p.Title)
		}
		products = append(products, model.Product{
			ID:            p.ID,
			Title:         p.Title,
			Slug:          slug,
			Description:   p.Description,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			AssetURL:      p.AssetURL,
			Status:        status,
			Featured:      p.Featured,
			CategoryID:    p.Category,
		})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, nil, err
	}
	return categories, products, nil
}

// Apply inserts the file's rows, leaving rows that already exist untouched.
func Apply(ctx context.Context, repo repository.ProductRepository, f *SeedFile) (int, error) {
	categories, products, err := f.Models()
	if err != nil {
		return 0, err
	}
	if err := repo.Seed(ctx, categories, products); err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	return len(products), nil
}
