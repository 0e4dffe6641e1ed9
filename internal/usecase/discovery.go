package usecase

import "RfpIntel/internal/domain"

// DiscoverNew returns the external files whose name matches no registered
// document (case-sensitive exact match), in listing order. It has no side
// effects; two files sharing a new name are both returned and the second is
// skipped at ingestion once the first is registered.
func DiscoverNew(external []domain.ExternalFile, registered []domain.Document) []domain.ExternalFile {
	known := make(map[string]struct{}, len(registered))
	for _, doc := range registered {
		known[doc.Name] = struct{}{}
	}

	fresh := make([]domain.ExternalFile, 0, len(external))
	for _, file := range external {
		if _, ok := known[file.Name]; ok {
			continue
		}
		fresh = append(fresh, file)
	}
	return fresh
}
