package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// Section markers of the map description
const (
	nodesHeader = "NODES"
	edgesMarker = "EDGES"
	exitsMarker = "EXITS"
)

// MapStats summarizes a map load
type MapStats struct {
	Nodes    int
	Edges    int
	Exits    int
	Skipped  int // malformed lines
	Rejected int // well-formed lines the graph refused
}

// LoadMapFile reads a map description from disk into the graph
func LoadMapFile(graph *Graph, filename string) (MapStats, error) {
	log.Printf("📂 Loading facility map from %s...\n", filename)

	file, err := os.Open(filename)
	if err != nil {
		return MapStats{}, fmt.Errorf("failed to open map: %w", err)
	}
	defer file.Close()

	stats, err := LoadMap(graph, file)
	if err != nil {
		return stats, err
	}

	log.Printf("   ✅ Map loaded: %d nodes, %d edges, %d exits\n", stats.Nodes, stats.Edges, stats.Exits)
	if stats.Skipped > 0 || stats.Rejected > 0 {
		log.Printf("   ℹ️  Skipped %d malformed lines, rejected %d entries\n", stats.Skipped, stats.Rejected)
	}
	return stats, nil
}

// LoadMap parses the map description:
//
//	NODES
//	<node_id> <area_id> <x> <y>
//	EDGES
//	<edge_id> <start_node_id> <end_node_id> <distance>
//	EXITS
//	<area_id>
//
// The EXITS section is optional. Malformed lines are skipped and entries the
// graph rejects (duplicates, unknown endpoints, capacity) are logged and
// skipped. A missing NODES header aborts the load.
func LoadMap(graph *Graph, r io.Reader) (MapStats, error) {
	var stats MapStats
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != nodesHeader {
		if err := scanner.Err(); err != nil {
			return stats, fmt.Errorf("failed to read map: %w", err)
		}
		return stats, ErrMissingHeader
	}

	section := nodesHeader
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if line == edgesMarker || line == exitsMarker {
			section = line
			continue
		}

		var err error
		switch section {
		case nodesHeader:
			err = loadNodeLine(graph, line)
			if err == nil {
				stats.Nodes++
			}
		case edgesMarker:
			err = loadEdgeLine(graph, line)
			if err == nil {
				stats.Edges++
			}
		case exitsMarker:
			err = loadExitLine(graph, line)
			if err == nil {
				stats.Exits++
			}
		}

		if err != nil {
			if isMalformed(err) {
				stats.Skipped++
			} else {
				stats.Rejected++
			}
			log.Printf("⚠️  Map line %d skipped: %v\n", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read map: %w", err)
	}

	return stats, nil
}

func loadNodeLine(graph *Graph, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return fmt.Errorf("%w: %q", ErrMalformedMapLine, line)
	}
	id, err1 := strconv.Atoi(fields[0])
	area, err2 := strconv.Atoi(fields[1])
	x, err3 := strconv.ParseFloat(fields[2], 64)
	y, err4 := strconv.ParseFloat(fields[3], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || !isFinite(x) || !isFinite(y) {
		return fmt.Errorf("%w: %q", ErrMalformedMapLine, line)
	}
	return graph.AddNode(id, area, x, y)
}

func loadEdgeLine(graph *Graph, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return fmt.Errorf("%w: %q", ErrMalformedMapLine, line)
	}
	id, err1 := strconv.Atoi(fields[0])
	from, err2 := strconv.Atoi(fields[1])
	to, err3 := strconv.Atoi(fields[2])
	distance, err4 := strconv.ParseFloat(fields[3], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || !isFinite(distance) {
		return fmt.Errorf("%w: %q", ErrMalformedMapLine, line)
	}
	return graph.AddEdge(id, from, to, distance)
}

func loadExitLine(graph *Graph, line string) error {
	fields := strings.Fields(line)
	area, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedMapLine, line)
	}
	return graph.MarkExit(area)
}

func isMalformed(err error) bool {
	return errors.Is(err, ErrMalformedMapLine)
}
