package cli

import (
	"context"
	"fmt"
)

func (a *App) identityEnabled() bool { return a.identity.Enabled() }

// Login runs the federated login; "login remember" keeps the token for the
// next start.
func (a *App) Login(ctx context.Context, args []string) error {
	remember := len(args) > 0 && args[0] == "remember"

	sess, err := a.identity.Login(ctx, remember)
	if err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s (until %s)\n", sess.Subject, sess.ExpiresAt.Format("2006-01-02 15:04"))
	return nil
}

// Logout ends the session. A sponsored wallet unlocked under it is dropped.
// "logout wipe" also deletes the saved profile.
func (a *App) Logout(ctx context.Context, args []string) error {
	wipe := len(args) > 0 && args[0] == "wipe"

	if wipe {
		ok, err := getConfirmation(a.reader, "Log out and delete the saved wallet? It cannot be recovered without a backup.", a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Cancelled")
			return nil
		}
	}

	if err := a.identity.Logout(ctx); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out")

	if !wipe {
		return nil
	}
	if err := a.wallets.DeleteProfile(ctx); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintln(a.out, "Profile deleted")
	return nil
}
