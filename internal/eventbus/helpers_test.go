package eventbus

import "fwatch/internal/domain"

func runAt(path string) domain.Run {
	return domain.Run{Path: path}
}
