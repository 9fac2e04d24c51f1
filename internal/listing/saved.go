package listing

import "context"

// Save bookmarks productID for the requesting user. Saving twice is a no-op.
func (s *Service) Save(ctx context.Context, actor User, productID string) error {
	if actor.ID == "" {
		return ErrUnauthorized
	}

	created, err := s.Store.Save(ctx, actor, productID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	s.Metrics.saved("save")
	s.publish(ctx, Event{Type: EventSaved, ProductID: productID, UserID: actor.ID})
	return nil
}

// Unsave removes the bookmark if present; a missing bookmark is not an error.
func (s *Service) Unsave(ctx context.Context, actor User, productID string) error {
	if actor.ID == "" {
		return ErrUnauthorized
	}

	removed, err := s.Store.Unsave(ctx, actor.ID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	s.Metrics.saved("unsave")
	s.publish(ctx, Event{Type: EventUnsaved, ProductID: productID, UserID: actor.ID})
	return nil
}

// Saved lists the actor's bookmarked listings, newest first.
func (s *Service) Saved(ctx context.Context, actor User) ([]Product, error) {
	if actor.ID == "" {
		return nil, ErrUnauthorized
	}

	ps, err := s.Store.SavedBy(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	for i := range ps {
		ps[i].SavedByUser = true
		ps[i].CreatedByUser = ps[i].SellerID == actor.ID
	}
	return ps, nil
}

// IsSaved reports whether userID has bookmarked productID.
func (s *Service) IsSaved(ctx context.Context, userID, productID string) (bool, error) {
	return s.Store.IsSaved(ctx, userID, productID)
}
