package handlers

import (
	"openboard/internal/board"
	"openboard/internal/client"
	"openboard/internal/room"
)

// LoadRoom replays the room's whiteboard state to a newly joined client:
// every board, its objects (with file URLs signed for this recipient),
// the active board and its slide, then the video init pass. Rooms get
// their first board lazily here.
func (p *Processor) LoadRoom(rm *room.Room, c *client.Client) {
	rm.Do(func() {
		if rm.Wbs.Len() == 0 {
			rm.Wbs.Add(c.LanguageID)
		}

		for _, wb := range rm.Wbs.List() {
			p.gw.SendTo(c, ActionCreateWb.String(), wb.AddJSON())
			if wb.Len() > 0 {
				p.gw.SendTo(c, ActionLoad.String(), map[string]any{
					"wbId": wb.ID(),
					"obj":  objectList(wb.List()),
				})
			}
		}

		if active, ok := rm.Wbs.Active(); ok {
			p.gw.SendTo(c, ActionActivateWb.String(), map[string]any{"wbId": active})
			if wb, found := rm.Wbs.Get(active); found {
				p.gw.SendTo(c, ActionSetSlide.String(), map[string]any{
					"wbId":          active,
					board.AttrSlide: wb.Slide(),
				})
			}
		}
	})

	p.loadVideosLocked(rm, c)
}

func (p *Processor) loadVideosLocked(rm *room.Room, c *client.Client) {
	rm.Do(func() {
		p.loadVideos(rm, c)
	})
}
