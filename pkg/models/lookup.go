package models

import "github.com/tradeunity/salesintel/pkg/parse"

// Catalog indexes catalog entries under both SKU and ERP reference. Keys
// are normalized with parse.Key on insert and on lookup.
type Catalog struct {
	Entries []*CatalogEntry

	bySKU map[string]*CatalogEntry
	byERP map[string]*CatalogEntry
}

// NewCatalog indexes entries. When two entries share a key the first one wins.
func NewCatalog(entries []*CatalogEntry) *Catalog {
	c := &Catalog{
		Entries: entries,
		bySKU:   make(map[string]*CatalogEntry, len(entries)),
		byERP:   make(map[string]*CatalogEntry, len(entries)),
	}
	for _, e := range entries {
		if k := parse.Key(e.SKU); k != "" {
			if _, ok := c.bySKU[k]; !ok {
				c.bySKU[k] = e
			}
		}
		if k := parse.Key(e.ERPRef); k != "" {
			if _, ok := c.byERP[k]; !ok {
				c.byERP[k] = e
			}
		}
	}
	return c
}

// BySKU returns the entry for sku, or nil.
func (c *Catalog) BySKU(sku string) *CatalogEntry {
	if c == nil {
		return nil
	}
	return c.bySKU[parse.Key(sku)]
}

// ByERPRef returns the entry for an ERP reference, or nil.
func (c *Catalog) ByERPRef(ref string) *CatalogEntry {
	if c == nil {
		return nil
	}
	return c.byERP[parse.Key(ref)]
}

// PriceList indexes the importer's price list by SKU.
type PriceList struct {
	Prices []*CEGPrice

	bySKU map[string]*CEGPrice
}

// NewPriceList indexes prices. When two rows share a SKU the first one wins.
func NewPriceList(prices []*CEGPrice) *PriceList {
	p := &PriceList{Prices: prices, bySKU: make(map[string]*CEGPrice, len(prices))}
	for _, price := range prices {
		if k := parse.Key(price.SKU); k != "" {
			if _, ok := p.bySKU[k]; !ok {
				p.bySKU[k] = price
			}
		}
	}
	return p
}

// BySKU returns the price row for sku, or nil.
func (p *PriceList) BySKU(sku string) *CEGPrice {
	if p == nil {
		return nil
	}
	return p.bySKU[parse.Key(sku)]
}

// Inventory indexes stock snapshots by ERP reference.
type Inventory struct {
	Snapshots []*StockSnapshot

	byERP map[string]*StockSnapshot
}

// NewInventory indexes copies of snapshots. Cases of repeated references
// are summed into the first snapshot seen.
func NewInventory(snapshots []*StockSnapshot) *Inventory {
	inv := &Inventory{byERP: make(map[string]*StockSnapshot, len(snapshots))}
	for _, s := range snapshots {
		k := parse.Key(s.ERPRef)
		if k == "" {
			continue
		}
		if existing, ok := inv.byERP[k]; ok {
			existing.Cases = existing.Cases.Add(s.Cases)
			continue
		}
		snap := *s
		inv.byERP[k] = &snap
		inv.Snapshots = append(inv.Snapshots, &snap)
	}
	return inv
}

// ByERPRef returns the snapshot for ref, or nil.
func (i *Inventory) ByERPRef(ref string) *StockSnapshot {
	if i == nil {
		return nil
	}
	return i.byERP[parse.Key(ref)]
}
