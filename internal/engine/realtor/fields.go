package realtor

// GraphQL selection sets requested for every listing

const listingFields = `
    pending_date
    listing_id
    property_id
    href
    list_date
    status
    last_sold_price
    last_sold_date
    list_price
    list_price_max
    list_price_min
    price_per_sqft
    flags {
        is_contingent
        is_pending
        is_new_construction
    }
    description {
        type
        sqft
        beds
        baths_full
        baths_half
        lot_sqft
        year_built
        garage
        name
        stories
        text
    }
    source {
        id
        listing_id
    }
    hoa {
        fee
    }
    location {
        address {
            street_direction
            street_number
            street_name
            street_suffix
            line
            unit
            city
            state_code
            postal_code
            coordinate {
                lon
                lat
            }
        }
        county {
            name
            fips_code
        }
        neighborhoods {
            name
        }
    }
    tax_record {
        public_record_id
    }
    primary_photo {
        href
    }
    photos {
        href
    }
    advertisers {
        email
        broker {
            name
            fulfillment_id
        }
        type
        name
        fulfillment_id
        builder {
            name
            fulfillment_id
        }
        phones {
            ext
            primary
            type
            number
        }
        office {
            name
            email
            fulfillment_id
            href
            phones {
                number
                type
                primary
                ext
            }
            mls_set
        }
        mls_set
        nrds_id
    }`

const estimateFields = `
        __typename
        source { __typename type name }
        estimate
        estimateHigh: estimate_high
        estimateLow: estimate_low
        date
        isBestHomeValue: isbest_homevalue`

const enrichmentFields = `
    nearbySchools: nearby_schools(radius: 5.0, limit_per_level: 3) {
        __typename schools { district { __typename id name } }
    }
    taxHistory: tax_history { __typename tax year assessment { __typename building land total } }`

// homeFields is the single-property detail selection, enrichment included
const homeFields = "{" + listingFields + enrichmentFields + `
    estimates {
        __typename
        currentValues: current_values {` + estimateFields + `
        }
    }
}`

// searchFields is the per-result selection of home_search
const searchFields = "{" + listingFields + `
    current_estimates {` + estimateFields + `
    }
}`

// resultsEnvelope wraps searchFields with the paging counters
const resultsEnvelope = `{
    count
    total
    results ` + searchFields + `
}`

const homeQuery = `query Home($property_id: ID!) {
    home(property_id: $property_id) ` + homeFields + `
}`

const enrichmentQuery = `query GetHome($property_id: ID!) {
    home(property_id: $property_id) {
        __typename` + enrichmentFields + `
    }
}`

const listingIDQuery = `query Property($property_id: ID!) {
    property(id: $property_id) {
        listings {
            listing_id
            primary
        }
    }
}`
