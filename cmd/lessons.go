package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/icon"
	"github.com/coursecast/coursecast/style"
	"github.com/coursecast/coursecast/tui"
	"github.com/invopop/jsonschema"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// filterLessons keeps the lessons whose title fuzzy-matches query, in listing order.
func filterLessons(lessons []api.Lesson, query string) []api.Lesson {
	if query == "" {
		return lessons
	}
	return lo.Filter(lessons, func(l api.Lesson, _ int) bool {
		return fuzzy.MatchNormalizedFold(query, l.Title)
	})
}

func lessonLine(l api.Lesson, next bool) string {
	var sb strings.Builder
	sb.WriteString(style.Faint(fmt.Sprintf("%3d", l.ID)))
	sb.WriteString(" ")
	sb.WriteString(fmt.Sprintf("%d. %s", l.Order, l.Title))

	if mark := tui.Marker(&l); mark != "" {
		sb.WriteString(" " + mark)
	}
	if l.DurationMinutes > 0 {
		sb.WriteString(style.Faint(fmt.Sprintf(" (%d min)", l.DurationMinutes)))
	}
	if next {
		sb.WriteString(" " + style.Fg(style.AccentColor)(icon.Get(icon.Continue)+" continue here"))
	}
	return sb.String()
}

// printLessons writes one line per lesson, marking the one to continue with.
func printLessons(w io.Writer, lessons []api.Lesson) {
	next := mo.TupleToOption(api.NextLesson(lessons))
	for _, l := range lessons {
		isNext := next.IsPresent() && next.MustGet().ID == l.ID
		_, _ = fmt.Fprintln(w, lessonLine(l, isNext))
	}
}

func lessonSchema() *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.Namer = func(t reflect.Type) string {
		return "api." + t.Name()
	}
	return reflector.Reflect([]api.Lesson{})
}

func parseID(what, raw string) int {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		handleErr(fmt.Errorf("invalid %s id %q", what, raw))
	}
	return id
}

func init() {
	rootCmd.AddCommand(lessonsCmd)
	lessonsCmd.Flags().BoolP("json", "j", false, "Print the lessons as JSON")
	lessonsCmd.Flags().Bool("schema", false, "Print the JSON schema of the lesson objects and exit")
	lessonsCmd.Flags().StringP("filter", "f", "", "Only show lessons whose title fuzzy-matches the query")
}

var lessonsCmd = &cobra.Command{
	Use:   "lessons <sub-course id>",
	Short: "List the lessons of a sub-course and where to continue",
	Args: func(cmd *cobra.Command, args []string) error {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			return nil
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			handleErr(json.NewEncoder(os.Stdout).Encode(lessonSchema()))
			return
		}

		subCourseID := parseID("sub-course", args[0])
		lessons, err := api.FromConfig().GetLessons(commandContext(cmd), subCourseID, requireToken())
		handleErr(err)

		lessons = filterLessons(lessons, lo.Must(cmd.Flags().GetString("filter")))

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(os.Stdout).Encode(lessons))
			return
		}

		if len(lessons) == 0 {
			fmt.Println(style.Faint("no lessons"))
			return
		}

		printLessons(os.Stdout, lessons)
	},
}
