package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
	"github.com/finbooks/finbooks/internal/utils/pagination"
)

type memDocumentRepository struct {
	store *Store
}

var _ portsrepo.DocumentRepositoryFacade = (*memDocumentRepository)(nil)

func (r *memDocumentRepository) FindDocumentByID(ctx context.Context, documentID string) (*domain.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.findDocumentLocked(documentID)
}

func (r *memDocumentRepository) FindLinesByDocumentID(ctx context.Context, documentID string) ([]domain.DocumentLine, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	lines := make([]domain.DocumentLine, len(r.store.documentRows[documentID]))
	copy(lines, r.store.documentRows[documentID])
	return lines, nil
}

func (r *memDocumentRepository) ListDocumentsByCustomer(ctx context.Context, tenantID string, customerID string) ([]domain.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	documents := []domain.Document{}
	for _, document := range r.store.documents {
		if document.TenantID == tenantID && document.CustomerID == customerID {
			documents = append(documents, document)
		}
	}
	sort.Slice(documents, func(i, j int) bool {
		if !documents[i].IssueDate.Equal(documents[j].IssueDate) {
			return documents[i].IssueDate.Before(documents[j].IssueDate)
		}
		return documents[i].DocumentID < documents[j].DocumentID
	})
	return documents, nil
}

func (r *memDocumentRepository) ListDocuments(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Document, *string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	documents := []domain.Document{}
	for _, document := range r.store.documents {
		if document.TenantID == tenantID {
			documents = append(documents, document)
		}
	}
	sort.Slice(documents, func(i, j int) bool {
		if !documents[i].IssueDate.Equal(documents[j].IssueDate) {
			return documents[i].IssueDate.After(documents[j].IssueDate)
		}
		return documents[i].DocumentID > documents[j].DocumentID
	})

	start := 0
	if nextToken != nil && *nextToken != "" {
		cur, err := pagination.Decode(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		for i, document := range documents {
			if document.DocumentID == cur.ID {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	var next *string
	if end < len(documents) {
		last := documents[end-1]
		token := pagination.Cursor{At: last.IssueDate, ID: last.DocumentID}.Token()
		next = &token
	} else {
		end = len(documents)
	}
	return documents[start:end], next, nil
}

func (r *memDocumentRepository) CreateDocument(ctx context.Context, document domain.Document, lines []domain.DocumentLine, fiscalYear int) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Reject before drawing, so a failed create burns no number.
	if _, ok := r.store.documents[document.DocumentID]; ok {
		return 0, fmt.Errorf("%w: document %s", apperrors.ErrDuplicate, document.DocumentID)
	}
	document.Number = r.store.nextNumberLocked(document.TenantID, document.Type.SequenceType(), fiscalYear)
	document.Lines = nil
	r.store.documents[document.DocumentID] = document
	cloned := make([]domain.DocumentLine, len(lines))
	copy(cloned, lines)
	r.store.documentRows[document.DocumentID] = cloned
	return document.Number, nil
}

func (r *memDocumentRepository) UpdateDocumentStatus(ctx context.Context, documentID string, status domain.DocumentStatus, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	document, ok := r.store.documents[documentID]
	if !ok {
		return apperrors.ErrNotFound
	}
	document.Status = status
	document.Touch(now, userID)
	r.store.documents[documentID] = document
	return nil
}

func (s *Store) findDocumentLocked(documentID string) (*domain.Document, error) {
	document, ok := s.documents[documentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &document, nil
}
