package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/brunobiangulo/sociograph"
	"github.com/brunobiangulo/sociograph/render"
	"github.com/brunobiangulo/sociograph/store"
)

// Colors used in reports.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorPrimary).
	MarginTop(1)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Padding(0, 1)

var cellStyle = lipgloss.NewStyle().
	Padding(0, 1)

var mutedStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

// maxCommunityRows caps the community table; the rest are summarised.
const maxCommunityRows = 15

// report renders a run summary, a community size table and the rank
// highest actors by the run's size metric.
func report(res *sociograph.Result, rank int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", titleStyle.Render("sociograph "+res.Algorithm))
	fmt.Fprintf(&b, "%s actors, %s interactions, %s communities, modularity %.4f\n",
		humanize.Comma(int64(res.Nodes)),
		humanize.Comma(int64(res.Edges)),
		humanize.Comma(int64(len(res.Communities))),
		res.Modularity)
	if res.RunID != "" {
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render("run "+res.RunID))
	}

	b.WriteString(titleStyle.Render("Communities") + "\n")
	b.WriteString(communityTable(res) + "\n")

	b.WriteString(titleStyle.Render("Top actors by "+res.Metric.String()) + "\n")
	b.WriteString(actorTable(res, rank))
	return b.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func communityTable(res *sociograph.Result) string {
	t := newTable("Community", "Actors", "Share", "Color")
	for i, c := range res.Communities {
		if i == maxCommunityRows {
			rest := 0
			for _, r := range res.Communities[i:] {
				rest += r.Size
			}
			t.Row(fmt.Sprintf("+%d more", len(res.Communities)-i), humanize.Comma(int64(rest)), share(rest, res.Nodes), "")
			break
		}
		t.Row(strconv.Itoa(c.ID), humanize.Comma(int64(c.Size)), share(c.Size, res.Nodes), render.Tab20.Color(c.ID))
	}
	return t.String()
}

func actorTable(res *sociograph.Result, rank int) string {
	t := newTable("#", "Actor", "Community", "Degree", "Betweenness", "Closeness", "PageRank", "Clustering")
	for i, ns := range res.Top(res.Metric, rank) {
		t.Row(
			strconv.Itoa(i+1),
			ns.Actor,
			strconv.Itoa(res.Partition[ns.Actor]),
			humanize.FtoaWithDigits(ns.Degree, 4),
			humanize.FtoaWithDigits(ns.Betweenness, 4),
			humanize.FtoaWithDigits(ns.Closeness, 4),
			humanize.FtoaWithDigits(ns.PageRank, 4),
			humanize.FtoaWithDigits(ns.Clustering, 4),
		)
	}
	return t.String()
}

func runsTable(runs []store.Run) string {
	if len(runs) == 0 {
		return mutedStyle.Render("no recorded runs")
	}
	t := newTable("Run", "Created", "Source", "Algorithm", "Actors", "Communities", "Modularity")
	for _, r := range runs {
		t.Row(r.ID, r.CreatedAt, r.Source, r.Algorithm,
			humanize.Comma(int64(r.Nodes)), strconv.Itoa(r.Communities),
			strconv.FormatFloat(r.Modularity, 'f', 4, 64))
	}
	return t.String()
}

func share(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return humanize.FtoaWithDigits(100*float64(n)/float64(total), 1) + "%"
}
