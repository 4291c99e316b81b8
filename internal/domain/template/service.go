package template

import (
	"context"
	"strings"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// Service derives templates from mapped reaction strings through the
// external template-extraction capability.
type Service struct {
	extractor chem.TemplateExtractor
	logger    logging.Logger
}

// NewService constructs a template extraction service.
func NewService(extractor chem.TemplateExtractor, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		extractor: extractor,
		logger:    logger,
	}
}

// BuildFromString derives a Template from a mapped reaction string.  The
// string must split on ">" into reactants, agents and products segments with
// non-empty reactant and product sides.  The extracted rule comes back in the
// retro direction; the forward rule is its segment reversal, a pure string
// transformation with no second extraction call.
func (s *Service) BuildFromString(ctx context.Context, mappedReaction string) (*Template, error) {
	tpl, err := New(mappedReaction)
	if err != nil {
		return nil, err
	}

	segments := strings.Split(mappedReaction, ">")
	if len(segments) != 3 {
		return nil, errors.Newf(errors.ErrCodeMalformedReaction,
			"mapped reaction must split into reactants, agents and products, got %d segments", len(segments))
	}
	reactants, agents, products := segments[0], segments[1], segments[2]
	if reactants == "" || products == "" {
		return nil, errors.New(errors.ErrCodeMalformedReaction, "mapped reaction is missing reactants or products")
	}

	out, err := s.extractor.Extract(ctx, chem.ExtractionInput{
		ID:        tpl.UID,
		Products:  products,
		Agents:    agents,
		Reactants: reactants,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTemplateExtraction, "template extraction failed")
	}
	if out.ReactionSMARTS == "" {
		return nil, errors.New(errors.ErrCodeTemplateExtraction, "extractor returned an empty reaction SMARTS")
	}

	tpl.ProductsTemplate = out.Products
	tpl.ReactantsTemplate = out.Reactants
	tpl.RwdSMARTS = out.ReactionSMARTS
	tpl.FwdSMARTS = chem.ReverseRuleString(out.ReactionSMARTS)

	s.logger.Debug("template extracted",
		logging.String("uid", tpl.UID),
		logging.String("rwd_smarts", tpl.RwdSMARTS))

	return tpl, nil
}
