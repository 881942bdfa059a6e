package domain

// Action is one of the cart actions below. The set is closed: isCartAction is
// unexported so no other package can add variants.
type Action interface {
	isCartAction()
}

type AddItem struct {
	Item CartItem
}

type RemoveItem struct {
	ID string
}

type UpdateQuantity struct {
	ID       string
	Quantity int
}

type ClearCart struct{}

type ToggleCart struct{}

type OpenCart struct{}

type CloseCart struct{}

// LoadCart replaces the item list in one step. Used to hydrate from storage.
type LoadCart struct {
	Items []CartItem
}

// TakeItems lowers each listed line by the given quantity, removing lines
// that reach zero. Lines not listed are left alone.
type TakeItems struct {
	Items []CartItem
}

// PutBackItems raises each listed line by the given quantity, re-adding lines
// that are no longer present.
type PutBackItems struct {
	Items []CartItem
}

func (AddItem) isCartAction()        {}
func (RemoveItem) isCartAction()     {}
func (UpdateQuantity) isCartAction() {}
func (ClearCart) isCartAction()      {}
func (ToggleCart) isCartAction()     {}
func (OpenCart) isCartAction()       {}
func (CloseCart) isCartAction()      {}
func (LoadCart) isCartAction()       {}
func (TakeItems) isCartAction()      {}
func (PutBackItems) isCartAction()   {}

// Reduce returns the state that results from applying action to state.
// The input cart is never modified.
func Reduce(state Cart, action Action) Cart {
	switch a := action.(type) {
	case AddItem:
		return addItem(state, a.Item)

	case RemoveItem:
		items := make([]CartItem, 0, len(state.Items))
		for _, it := range state.Items {
			if it.ID != a.ID {
				items = append(items, it)
			}
		}
		return withItems(state, cloneItems(items))

	case UpdateQuantity:
		if a.Quantity <= 0 {
			return Reduce(state, RemoveItem{ID: a.ID})
		}
		items := cloneItems(state.Items)
		for i := range items {
			if items[i].ID == a.ID {
				items[i].Quantity = a.Quantity
			}
		}
		return withItems(state, items)

	case ClearCart:
		return withItems(state, []CartItem{})

	case ToggleCart:
		next := withItems(state, cloneItems(state.Items))
		next.IsOpen = !state.IsOpen
		return next

	case OpenCart:
		next := withItems(state, cloneItems(state.Items))
		next.IsOpen = true
		return next

	case CloseCart:
		next := withItems(state, cloneItems(state.Items))
		next.IsOpen = false
		return next

	case LoadCart:
		return withItems(state, normalize(a.Items))

	case TakeItems:
		return takeItems(state, a.Items)

	case PutBackItems:
		return putBackItems(state, a.Items)

	default:
		return state
	}
}

func addItem(state Cart, item CartItem) Cart {
	items := cloneItems(state.Items)
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity++
			return withItems(state, items)
		}
	}

	line := cloneItems([]CartItem{item})[0]
	line.Quantity = 1
	return withItems(state, append(items, line))
}

func takeItems(state Cart, taken []CartItem) Cart {
	less := make(map[string]int, len(taken))
	for _, it := range taken {
		less[it.ID] += it.Quantity
	}
	items := make([]CartItem, 0, len(state.Items))
	for _, it := range cloneItems(state.Items) {
		it.Quantity -= less[it.ID]
		if it.Quantity > 0 {
			items = append(items, it)
		}
	}
	return withItems(state, items)
}

func putBackItems(state Cart, returned []CartItem) Cart {
	items := cloneItems(state.Items)
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.ID] = i
	}
	for _, it := range normalize(returned) {
		if i, ok := index[it.ID]; ok {
			items[i].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	return withItems(state, items)
}

// normalize drops lines without a positive quantity and merges duplicate ids
// so that loaded data cannot break the one-line-per-product rule.
func normalize(in []CartItem) []CartItem {
	items := make([]CartItem, 0, len(in))
	index := make(map[string]int, len(in))
	for _, it := range cloneItems(in) {
		if it.Quantity <= 0 {
			continue
		}
		if i, ok := index[it.ID]; ok {
			items[i].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	return items
}
