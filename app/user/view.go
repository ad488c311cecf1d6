package user

import "github.com/dancarlton/rinsed/internal/model"

// ownerView is what an account holder sees about themselves. The reset token
// only ever travels by mail.
func ownerView(u *model.User) map[string]any {
	v := u.SafeView()
	delete(v, "passwordResetToken")
	delete(v, "passwordResetExpires")

	v["hasPassword"] = u.HasPassword()
	return v
}

// profileView is what anyone can see about an account
func profileView(u *model.User) map[string]any {
	v := u.SafeView()

	profile := map[string]any{}
	for _, k := range []string{"id", "username", "avatar", "role", "createdAt"} {
		if val, ok := v[k]; ok {
			profile[k] = val
		}
	}

	return profile
}
