package notify

import (
	"github.com/auhoot/trivia-services/internal/comm"
	"github.com/auhoot/trivia-services/internal/gamesvc/models"
)

// ControlChanged fans out a persisted game control transition. Satisfies the
// control machine's Publisher.
func (n *Notifier) ControlChanged(old, new *models.GameControl) {
	n.Publish("game_control", comm.ChangeUpdate, old, new)
}
