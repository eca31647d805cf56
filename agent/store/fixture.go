package store

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

// Fixture is a self-contained data set. References between records are by
// name so the same file can seed any adapter.
type Fixture struct {
	Categories    []string             `yaml:"categories"`
	Products      []FixtureProduct     `yaml:"products"`
	Stages        []FixtureStage       `yaml:"stages"`
	Partners      []FixturePartner     `yaml:"partners"`
	Opportunities []FixtureOpportunity `yaml:"opportunities"`
	Quotations    []FixtureQuotation   `yaml:"quotations"`
}

type FixtureProduct struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Type        string  `yaml:"type"`
	Category    string  `yaml:"category"`
	UoM         string  `yaml:"uom"`
	Qty         float64 `yaml:"qty"`
	Price       float64 `yaml:"price"`
	Active      *bool   `yaml:"active"`
}

type FixtureStage struct {
	Name     string `yaml:"name"`
	Sequence int    `yaml:"sequence"`
	IsWon    bool   `yaml:"is_won"`
	IsLost   bool   `yaml:"is_lost"`
}

type FixturePartner struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

type FixtureOpportunity struct {
	Name            string  `yaml:"name"`
	Type            string  `yaml:"type"`
	Stage           string  `yaml:"stage"`
	Customer        string  `yaml:"customer"`
	Salesperson     string  `yaml:"salesperson"`
	Email           string  `yaml:"email"`
	Phone           string  `yaml:"phone"`
	Probability     float64 `yaml:"probability"`
	ExpectedRevenue float64 `yaml:"expected_revenue"`
	Active          *bool   `yaml:"active"`
}

type FixtureQuotation struct {
	Name      string                 `yaml:"name"`
	Customer  string                 `yaml:"customer"`
	State     string                 `yaml:"state"`
	DateOrder string                 `yaml:"date_order"`
	Lines     []FixtureQuotationLine `yaml:"lines"`
}

type FixtureQuotationLine struct {
	Product  string  `yaml:"product"`
	Quantity float64 `yaml:"quantity"`
	Price    float64 `yaml:"price"`
}

func isActive(flag *bool) bool {
	return flag == nil || *flag
}

func (q FixtureQuotation) orderDate() (time.Time, error) {
	if q.DateOrder == "" {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(time.DateOnly, q.DateOrder)
}

func (q FixtureQuotation) total() float64 {
	var total float64
	for _, l := range q.Lines {
		total += l.Quantity * l.Price
	}
	return total
}

func LoadFixture(r io.Reader) (*Fixture, error) {
	var fx Fixture
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fx, nil
}

func LoadFixtureFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return LoadFixture(f)
}

// DemoFixture returns the embedded demo data set.
func DemoFixture() *Fixture {
	var fx Fixture
	if err := yaml.Unmarshal(demoFixture, &fx); err != nil {
		panic(fmt.Sprintf("embedded demo fixture is invalid: %v", err))
	}
	return &fx
}
