package scenario

import (
	"context"
	"fmt"

	"agentescape/internal/crew"
	"agentescape/internal/game"
)

// CrewRecords is the personnel database the control room terminal reads.
type CrewRecords interface {
	Query(ctx context.Context, query string) (string, error)
	Member(ctx context.Context, role string) (crew.Member, error)
}

func newControlRoom(records CrewRecords) *game.Location {
	l := game.NewLocation(ControlRoom,
		"Banks of dark consoles line the walls. One terminal still glows on emergency power, "+
			"its screen showing a prompt for the crew database (SQL, table \"crew\").",
		EngineRoom, StorageBay,
	)
	l.AddItems("Datapad")
	l.Actions.MustRegister(
		lookAround(),
		lookForItems(),
		checkInventory(),
		moveTo(),
		queryCrewDatabase(records),
	)
	return l
}

func queryCrewDatabase(records CrewRecords) game.Action {
	return game.Action{
		Name: "query_crew_database",
		Description: "Run a read-only SQL query against the crew database. The table is \"crew\" with columns " +
			"first_name, last_name, birthday, role, status, years_of_service, specialization, clearance_level. " +
			fmt.Sprintf("At most %d rows are returned.", crew.MaxRows),
		Params: []game.Param{
			{Name: "query", Type: game.String, Description: "A SQL SELECT statement, for example SELECT * FROM crew WHERE role = 'Captain'."},
		},
		Handler: func(ctx context.Context, call game.Call) string {
			out, err := records.Query(ctx, call.Args.String("query"))
			if err != nil {
				return fmt.Sprintf("The terminal rejects the query: %v", err)
			}
			return "Query results:\n" + out
		},
	}
}
