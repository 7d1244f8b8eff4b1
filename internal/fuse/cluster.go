package fuse

import "sort"

// chunkCluster is a group of chunks judged coherent enough to fuse into
// one answer.
type chunkCluster struct {
	chunks            []ChunkInput
	relevance         map[string]float64
	topicCoherence    float64
	temporalCoherence float64
	semanticDensity   float64
}

func (c *chunkCluster) averageRelevance() float64 {
	if len(c.relevance) == 0 {
		return 0
	}
	var sum float64
	for _, v := range c.relevance {
		sum += v
	}
	return sum / float64(len(c.relevance))
}

// clusterChunks greedily walks ranked (assumed sorted by descending
// relevance), seeding a cluster on each unused chunk and absorbing any
// other unused chunk whose coherence with the seed meets cfg's threshold.
// A cluster survives only if it reaches cfg.MinChunksForFusion. Surviving
// clusters are sorted by average_relevance * topic_coherence *
// semantic_density, descending.
func clusterChunks(ranked []ChunkInput, query string, cfg Config) []*chunkCluster {
	queryWords := wordSet(query)
	used := map[string]struct{}{}

	var clusters []*chunkCluster
	for _, seed := range ranked {
		if _, ok := used[seed.ChunkID]; ok {
			continue
		}

		members := []ChunkInput{seed}
		relevance := map[string]float64{seed.ChunkID: seed.Relevance}
		used[seed.ChunkID] = struct{}{}

		for _, other := range ranked {
			if _, ok := used[other.ChunkID]; ok {
				continue
			}
			if coherence(seed, other, queryWords) >= cfg.CoherenceThreshold {
				members = append(members, other)
				relevance[other.ChunkID] = other.Relevance
				used[other.ChunkID] = struct{}{}
			}
		}

		if len(members) < cfg.MinChunksForFusion {
			continue
		}

		clusters = append(clusters, &chunkCluster{
			chunks:            members,
			relevance:         relevance,
			topicCoherence:    topicCoherence(members),
			temporalCoherence: temporalCoherence(members),
			semanticDensity:   semanticDensity(members, queryWords),
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		qi := clusters[i].averageRelevance() * clusters[i].topicCoherence * clusters[i].semanticDensity
		qj := clusters[j].averageRelevance() * clusters[j].topicCoherence * clusters[j].semanticDensity
		return qi > qj
	})

	return clusters
}
