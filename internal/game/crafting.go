package game

import (
	"errors"
	"fmt"
)

var (
	ErrMissingIngredients = errors.New("missing ingredients")
	ErrNotEnoughEnergy    = errors.New("not enough energy")
)

// Recipe describes a craftable item: the ingredients it consumes, the energy
// it costs, and what it yields.
type Recipe struct {
	Output      string
	OutputQty   int
	Ingredients map[string]int
	EnergyCost  float64
}

// Crafter performs crafting against an inventory and energy pool. Craft is
// transactional: every precondition is verified before anything is consumed,
// so a failed craft leaves both untouched.
type Crafter struct {
	inventory *Inventory
	energy    *Energy
}

func NewCrafter(inventory *Inventory, energy *Energy) *Crafter {
	return &Crafter{
		inventory: inventory,
		energy:    energy,
	}
}

// Craft consumes a recipe's ingredients and energy cost, then adds its
// output. Returns ErrMissingIngredients or ErrNotEnoughEnergy without
// mutating anything when a precondition fails.
func (c *Crafter) Craft(recipe Recipe) error {
	for itemID, qty := range recipe.Ingredients {
		if c.inventory.GetItemQuantity(itemID) < qty {
			return fmt.Errorf("crafting %s: %w: %s", recipe.Output, ErrMissingIngredients, itemID)
		}
	}
	if c.energy.Current() < recipe.EnergyCost {
		return fmt.Errorf("crafting %s: %w", recipe.Output, ErrNotEnoughEnergy)
	}

	for itemID, qty := range recipe.Ingredients {
		if !c.inventory.RemoveItem(itemID, qty) {
			// Preconditions were checked above; single-threaded crafting
			// cannot reach this.
			return fmt.Errorf("crafting %s: %w: %s", recipe.Output, ErrMissingIngredients, itemID)
		}
	}
	c.energy.Consume(recipe.EnergyCost)

	qty := recipe.OutputQty
	if qty <= 0 {
		qty = 1
	}
	c.inventory.AddItem(recipe.Output, qty)

	return nil
}
