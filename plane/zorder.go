package plane

import "fmt"

// Siblings are drawn in list order, later entries above earlier ones.
// New planes are appended, moving a plane never reorders it implicitly.

// MoveTop raises p above all of its siblings
func (p *Plane) MoveTop() error {
	n, err := p.node()
	if err != nil {
		return err
	}
	list := p.pile.siblings(n.parent)
	removeSlot(list, p.slot)
	*list = append(*list, p.slot)
	return nil
}

// MoveBottom lowers p below all of its siblings
func (p *Plane) MoveBottom() error {
	n, err := p.node()
	if err != nil {
		return err
	}
	list := p.pile.siblings(n.parent)
	removeSlot(list, p.slot)
	*list = append([]int{p.slot}, *list...)
	return nil
}

// MoveAbove places p directly above sibling other
func (p *Plane) MoveAbove(other *Plane) error {
	return p.moveNextTo(other, 1)
}

// MoveBelow places p directly below sibling other
func (p *Plane) MoveBelow(other *Plane) error {
	return p.moveNextTo(other, 0)
}

func (p *Plane) moveNextTo(other *Plane, shift int) error {
	n, err := p.node()
	if err != nil {
		return err
	}
	if other == nil {
		return fmt.Errorf("restack: %w", ErrNotSibling)
	}
	if other.pile != p.pile {
		return fmt.Errorf("restack: %w", ErrForeignPlane)
	}
	o, err := other.node()
	if err != nil {
		return fmt.Errorf("restack: other: %w", err)
	}
	if o.parent != n.parent || other.slot == p.slot {
		return fmt.Errorf("restack: %w", ErrNotSibling)
	}

	list := p.pile.siblings(n.parent)
	removeSlot(list, p.slot)
	at := indexOf(*list, other.slot) + shift
	*list = append(*list, 0)
	copy((*list)[at+1:], (*list)[at:])
	(*list)[at] = p.slot
	return nil
}
