package client

import "context"

// Optimistic applies a tentative state change, runs the request and, if the
// request fails, runs the revert that apply returned. The request error is
// returned unchanged.
func Optimistic(ctx context.Context, apply func() (revert func()), request func(context.Context) error) error {
	revert := apply()
	if err := request(ctx); err != nil {
		if revert != nil {
			revert()
		}
		return err
	}
	return nil
}
