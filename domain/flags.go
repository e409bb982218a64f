package domain

// UploadPolicy is the branch-conditional upload configuration, built once
// at process start from the config file and CI environment.
type UploadPolicy struct {
	// Branches that are allowed to upload (e.g. "master"). Empty means
	// uploads are never selected.
	Branches []string
	Token    string
	Channel  string
}

// SelectFlags derives the effective flag set for a run triggered from the
// given branch. Upload flags are included only when the branch matches the
// policy and a credential is available; everything else is passed through.
func SelectFlags(branch string, policy UploadPolicy, numpy string) FlagSet {
	flags := FlagSet{
		Channel: policy.Channel,
		NumPy:   numpy,
	}

	if policy.Token == "" {
		return flags
	}
	for _, allowed := range policy.Branches {
		if branch == allowed {
			flags.Upload = true
			flags.Token = policy.Token
			break
		}
	}
	return flags
}
